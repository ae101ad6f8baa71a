package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Fi44er/kirda/internal/models"
	"github.com/Fi44er/kirda/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const manualDepositPrefix = "DEP_"

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *Service) ListAllTransactions(ctx context.Context, limit int) ([]models.Transaction, error) {
	return s.repo.ListTransactions(ctx, limit)
}

func (s *Service) PlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.PlatformStats{}
	if stats.Users, err = s.repo.CountUsers(ctx); err != nil {
		return nil, err
	}
	for _, u := range users {
		stats.DepositWallets = stats.DepositWallets.Add(u.DepositWallet)
		stats.WithdrawalWallets = stats.WithdrawalWallets.Add(u.WithdrawalWallet)
		stats.ReferralWallets = stats.ReferralWallets.Add(u.ReferralWallet)
	}

	if stats.TotalDeposited, err = s.repo.SumTransactionsByType(ctx, models.TransactionDeposit); err != nil {
		return nil, err
	}
	withdrawn, err := s.repo.SumTransactionsByType(ctx, models.TransactionWithdrawal)
	if err != nil {
		return nil, err
	}
	stats.TotalWithdrawn = withdrawn.Abs()

	if stats.OpenHelpRequests, err = s.repo.CountHelpRequests(ctx, models.HelpStatusOpen); err != nil {
		return nil, err
	}
	if stats.PendingWithdrawals, err = s.repo.CountWithdrawalsByStatus(ctx, models.WithdrawalStatusPending); err != nil {
		return nil, err
	}
	return stats, nil
}

// ManualCredit books an operator deposit through the regular ledger path,
// referral commission included.
func (s *Service) ManualCredit(ctx context.Context, userID int64, amount decimal.Decimal, note string) (*DepositResult, error) {
	ref := manualDepositPrefix + uuid.NewString()
	description := fmt.Sprintf("Deposit of ₹%s", utils.FormatMoney(amount))
	if note = strings.TrimSpace(note); note != "" {
		description += " - " + note
	}

	result, err := s.CreditDeposit(ctx, userID, amount, ref, description)
	if err != nil {
		return nil, err
	}
	s.logger.Infof("Manual credit %s for user %d (%s)", utils.FormatMoney(amount), userID, ref)
	return result, nil
}
