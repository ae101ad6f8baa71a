package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Fi44er/kirda/internal/models"
	"github.com/Fi44er/kirda/utils"
	"github.com/shopspring/decimal"
)

const referralRefPrefix = "REF_"

type DepositResult struct {
	User       *models.User
	Commission decimal.Decimal
	ReferrerID int64
}

// CreditDeposit adds amount to the user's deposit wallet at most once per
// reference and pays the referrer's commission alongside it. A reference
// that was already credited yields ErrAlreadyProcessed and changes nothing.
func (s *Service) CreditDeposit(ctx context.Context, userID int64, amount decimal.Decimal, ref, description string) (*DepositResult, error) {
	amount = utils.RoundMoney(amount)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if ref == "" {
		return nil, fmt.Errorf("missing deposit reference: %w", ErrInvalidInput)
	}

	unlock := s.locks.lockUser(userID)
	defer unlock()

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	referrer, err := s.resolveReferrer(ctx, user)
	if err != nil {
		return nil, err
	}
	if referrer != nil {
		unlockReferrer := s.locks.lockUser(referrer.ID)
		defer unlockReferrer()
	}

	if description == "" {
		description = fmt.Sprintf("Deposit of ₹%s", utils.FormatMoney(amount))
	}

	result := &DepositResult{}
	err = s.inTx(ctx, func(ctx context.Context) error {
		user, err := s.getUser(ctx, userID)
		if err != nil {
			return err
		}

		done, err := s.repo.HasTransactionWithReference(ctx, user.ID, ref)
		if err != nil {
			return err
		}
		if done {
			return ErrAlreadyProcessed
		}

		user.DepositWallet = utils.RoundMoney(user.DepositWallet.Add(amount))
		if err := s.repo.UpdateUser(ctx, user); err != nil {
			return err
		}
		if _, err := s.recordTransaction(ctx, user.ID, models.TransactionDeposit, amount, description, ref); err != nil {
			return err
		}
		result.User = user

		if referrer == nil {
			return nil
		}
		commission, err := s.payReferralCommission(ctx, referrer.ID, user, amount, ref)
		if err != nil {
			return err
		}
		result.Commission = commission
		result.ReferrerID = referrer.ID
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			s.logger.Infof("Deposit %s for user %d already processed", ref, userID)
		} else {
			s.logger.Warnf("Deposit %s for user %d rejected: %v", ref, userID, err)
		}
		return nil, err
	}

	s.logger.Infof("Credited %s to deposit wallet of user %d (ref %s)", utils.FormatMoney(amount), userID, ref)
	return result, nil
}

// resolveReferrer looks up the user's referrer by code. An unknown code means
// no referrer.
func (s *Service) resolveReferrer(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ReferredBy == nil || *user.ReferredBy == "" {
		return nil, nil
	}

	referrer, err := s.repo.GetUserByReferralCode(ctx, *user.ReferredBy)
	if err != nil {
		return nil, err
	}
	if referrer == nil {
		s.logger.Warnf("Referral code %s of user %d does not resolve, skipping commission", *user.ReferredBy, user.ID)
		return nil, nil
	}
	if referrer.ID == user.ID {
		return nil, nil
	}
	return referrer, nil
}

func (s *Service) payReferralCommission(ctx context.Context, referrerID int64, depositor *models.User, amount decimal.Decimal, ref string) (decimal.Decimal, error) {
	commission := utils.RoundMoney(amount.Mul(s.referralRate))
	if !commission.IsPositive() {
		return decimal.Zero, nil
	}

	referrer, err := s.getUser(ctx, referrerID)
	if err != nil {
		return decimal.Zero, err
	}

	referrer.ReferralWallet = utils.RoundMoney(referrer.ReferralWallet.Add(commission))
	referrer.TotalEarned = utils.RoundMoney(referrer.TotalEarned.Add(commission))
	referrer.TotalReferrals++
	if err := s.repo.UpdateUser(ctx, referrer); err != nil {
		return decimal.Zero, err
	}

	description := fmt.Sprintf("Referral bonus from %s's deposit", depositor.Username)
	if _, err := s.recordTransaction(ctx, referrer.ID, models.TransactionReferralBonus, commission, description, referralRefPrefix+ref); err != nil {
		return decimal.Zero, err
	}

	s.logger.Infof("Referral commission %s paid to user %d for deposit %s", utils.FormatMoney(commission), referrer.ID, ref)
	return commission, nil
}

// DebitWithdrawal removes amount from the withdrawal wallet. It never
// partially succeeds.
func (s *Service) DebitWithdrawal(ctx context.Context, userID int64, amount decimal.Decimal, ref string) (*models.User, error) {
	unlock := s.locks.lockUser(userID)
	defer unlock()

	return s.debitWithdrawal(ctx, userID, amount, ref, "", nil)
}

// debitWithdrawal expects the caller to hold the user's lock. When record is
// set it is stored in the same DB transaction as the debit.
func (s *Service) debitWithdrawal(ctx context.Context, userID int64, amount decimal.Decimal, ref, description string, record *models.Withdrawal) (*models.User, error) {
	amount = utils.RoundMoney(amount)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if description == "" {
		description = fmt.Sprintf("Withdrawal of ₹%s", utils.FormatMoney(amount))
	}

	var user *models.User
	err := s.inTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.getUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := s.checkWithdrawable(user, amount); err != nil {
			return err
		}

		user.WithdrawalWallet = utils.RoundMoney(user.WithdrawalWallet.Sub(amount))
		if err := s.repo.UpdateUser(ctx, user); err != nil {
			return err
		}
		if _, err := s.recordTransaction(ctx, user.ID, models.TransactionWithdrawal, amount.Neg(), description, ref); err != nil {
			return err
		}
		if record != nil {
			return s.repo.CreateWithdrawal(ctx, record)
		}
		return nil
	})
	if err != nil {
		s.logger.Warnf("Withdrawal of %s for user %d rejected: %v", utils.FormatMoney(amount), userID, err)
		return nil, err
	}

	s.logger.Infof("Debited %s from withdrawal wallet of user %d", utils.FormatMoney(amount), userID)
	return user, nil
}

func (s *Service) checkWithdrawable(user *models.User, amount decimal.Decimal) error {
	if amount.GreaterThan(user.WithdrawalWallet) {
		return fmt.Errorf("%w: requested %s, available %s", ErrInsufficientBalance,
			utils.FormatMoney(amount), utils.FormatMoney(user.WithdrawalWallet))
	}
	if amount.LessThan(s.minWithdrawal) {
		return fmt.Errorf("%w: minimum withdrawal amount is ₹%s", ErrBelowMinimum, utils.FormatMoney(s.minWithdrawal))
	}
	return nil
}
