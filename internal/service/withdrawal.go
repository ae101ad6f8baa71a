package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Fi44er/kirda/internal/cashfree"
	"github.com/Fi44er/kirda/internal/models"
	"github.com/Fi44er/kirda/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const transferPrefix = "WTH_"

var (
	ifscPattern        = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	bankAccountPattern = regexp.MustCompile(`^[0-9]{6,18}$`)
)

type WithdrawInput struct {
	UserID            int64
	Amount            decimal.Decimal
	BankAccount       string
	IFSC              string
	AccountHolderName string
}

type WithdrawResult struct {
	User       *models.User
	TransferID string
	Status     string
}

func newTransferID() string {
	return transferPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func maskAccount(account string) string {
	if len(account) <= 4 {
		return account
	}
	return strings.Repeat("X", len(account)-4) + account[len(account)-4:]
}

func normalizeTransferStatus(status string) string {
	switch strings.ToUpper(status) {
	case models.WithdrawalStatusSuccess:
		return models.WithdrawalStatusSuccess
	case models.WithdrawalStatusFailed, "ERROR":
		return models.WithdrawalStatusFailed
	case models.WithdrawalStatusRejected:
		return models.WithdrawalStatusRejected
	case models.WithdrawalStatusReversed:
		return models.WithdrawalStatusReversed
	default:
		return models.WithdrawalStatusPending
	}
}

// Withdraw pays out from the withdrawal wallet to a bank account. The
// wallet is debited only after the gateway accepted the transfer; the user's
// lock is held across the gateway calls so two payouts cannot both pass the
// balance check.
func (s *Service) Withdraw(ctx context.Context, in WithdrawInput) (*WithdrawResult, error) {
	amount := utils.RoundMoney(in.Amount)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	in.BankAccount = strings.TrimSpace(in.BankAccount)
	in.IFSC = strings.ToUpper(strings.TrimSpace(in.IFSC))
	in.AccountHolderName = strings.TrimSpace(in.AccountHolderName)
	switch {
	case !bankAccountPattern.MatchString(in.BankAccount):
		return nil, fmt.Errorf("invalid bank account number: %w", ErrInvalidInput)
	case !ifscPattern.MatchString(in.IFSC):
		return nil, fmt.Errorf("invalid IFSC code: %w", ErrInvalidInput)
	case in.AccountHolderName == "":
		return nil, fmt.Errorf("account holder name is required: %w", ErrInvalidInput)
	}

	unlock := s.locks.lockUser(in.UserID)
	defer unlock()

	user, err := s.getUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.checkWithdrawable(user, amount); err != nil {
		s.logger.Warnf("Withdrawal of %s for user %d rejected: %v", utils.FormatMoney(amount), user.ID, err)
		return nil, err
	}

	beneficiaryID := fmt.Sprintf("BENE_%d_%d", user.ID, s.now().UnixMilli())
	err = s.gateway.AddBeneficiary(ctx, cashfree.Beneficiary{
		ID:          beneficiaryID,
		Name:        in.AccountHolderName,
		Email:       fmt.Sprintf("user%d@kirda.com", user.ID),
		Phone:       "9999999999",
		BankAccount: in.BankAccount,
		IFSC:        in.IFSC,
		Address:     "India",
	})
	if err != nil {
		s.logger.Errorf("Failed to add beneficiary for user %d: %v", user.ID, err)
		return nil, upstream(err)
	}

	transferID := newTransferID()
	transfer, err := s.gateway.RequestTransfer(ctx, cashfree.TransferRequest{
		TransferID:    transferID,
		BeneficiaryID: beneficiaryID,
		Amount:        amount,
		Remarks:       fmt.Sprintf("Withdrawal of Rs %s from gaming platform", utils.FormatMoney(amount)),
	})
	if err != nil {
		s.logger.Errorf("Failed to request transfer for user %d: %v", user.ID, err)
		return nil, upstream(err)
	}
	if transfer.TransferID != "" {
		transferID = transfer.TransferID
	}
	status := normalizeTransferStatus(transfer.Status)

	record := &models.Withdrawal{
		UserID:            user.ID,
		TransferID:        transferID,
		BeneficiaryID:     beneficiaryID,
		Amount:            amount,
		BankAccount:       maskAccount(in.BankAccount),
		IFSC:              in.IFSC,
		AccountHolderName: in.AccountHolderName,
		Status:            status,
		CreatedAt:         s.now(),
	}
	description := fmt.Sprintf("Withdrawal of ₹%s via Cashfree", utils.FormatMoney(amount))
	user, err = s.debitWithdrawal(ctx, user.ID, amount, transferID, description, record)
	if err != nil {
		s.logger.Errorf("Transfer %s accepted upstream but the debit failed: %v", transferID, err)
		s.notify("⚠️ Transfer %s accepted by gateway but not debited for user %d: %v", transferID, in.UserID, err)
		return nil, err
	}

	s.notify("🏦 Withdrawal ₹%s by user %d (transfer %s, %s)", utils.FormatMoney(amount), user.ID, transferID, status)
	return &WithdrawResult{User: user, TransferID: transferID, Status: status}, nil
}

// WithdrawalStatus refreshes a payout from the gateway. userID 0 skips the
// ownership check.
func (s *Service) WithdrawalStatus(ctx context.Context, userID int64, transferID string) (*models.Withdrawal, error) {
	withdrawal, err := s.repo.GetWithdrawalByTransferID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if withdrawal == nil || (userID != 0 && withdrawal.UserID != userID) {
		return nil, ErrWithdrawalNotFound
	}

	transfer, err := s.gateway.GetTransferStatus(ctx, transferID)
	if err != nil {
		s.logger.Errorf("Failed to get transfer status %s: %v", transferID, err)
		return nil, upstream(err)
	}

	if err := s.applyTransferStatus(ctx, withdrawal, normalizeTransferStatus(transfer.Status)); err != nil {
		return nil, err
	}
	return withdrawal, nil
}

// SyncWithdrawals refreshes every payout still pending at the gateway.
func (s *Service) SyncWithdrawals(ctx context.Context) error {
	withdrawals, err := s.repo.ListWithdrawalsByStatus(ctx, models.WithdrawalStatusPending)
	if err != nil {
		return err
	}

	for i := range withdrawals {
		w := &withdrawals[i]
		transfer, err := s.gateway.GetTransferStatus(ctx, w.TransferID)
		if err != nil {
			s.logger.Errorf("Payout sync: failed to get status of %s: %v", w.TransferID, err)
			continue
		}
		if err := s.applyTransferStatus(ctx, w, normalizeTransferStatus(transfer.Status)); err != nil {
			s.logger.Errorf("Payout sync: failed to update %s: %v", w.TransferID, err)
		}
	}
	return nil
}

// applyTransferStatus records a status change. Failed payouts are only
// flagged for an operator; the wallet is not refunded automatically.
func (s *Service) applyTransferStatus(ctx context.Context, w *models.Withdrawal, status string) error {
	if w.Status == status {
		return nil
	}
	if err := s.repo.UpdateWithdrawalStatus(ctx, w.TransferID, status); err != nil {
		return err
	}

	s.logger.Infof("Withdrawal %s: %s -> %s", w.TransferID, w.Status, status)
	w.Status = status
	switch status {
	case models.WithdrawalStatusFailed, models.WithdrawalStatusRejected, models.WithdrawalStatusReversed:
		s.notify("❌ Withdrawal %s of ₹%s for user %d is %s", w.TransferID, utils.FormatMoney(w.Amount), w.UserID, status)
	}
	return nil
}

func (s *Service) ListPendingWithdrawals(ctx context.Context) ([]models.Withdrawal, error) {
	return s.repo.ListWithdrawalsByStatus(ctx, models.WithdrawalStatusPending)
}
