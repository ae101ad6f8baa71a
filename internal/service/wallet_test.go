package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Fi44er/kirda/internal/models"
	"github.com/Fi44er/kirda/internal/service"
	"github.com/Fi44er/kirda/internal/service/servicetest"
	"github.com/Fi44er/kirda/utils"
	"github.com/stretchr/testify/require"
)

var money = servicetest.Money

func requireMoney(t *testing.T, want string, got interface{ StringFixed(int32) string }) {
	t.Helper()
	require.Equal(t, want, got.StringFixed(2))
}

func countByType(txs []models.Transaction, txType models.TransactionType) int {
	n := 0
	for _, tx := range txs {
		if tx.Type == txType {
			n++
		}
	}
	return n
}

func TestCreditDeposit_PaysReferralCommission(t *testing.T) {
	env := servicetest.New(t)
	ctx := context.Background()
	alice := env.Register(t, "alice", "")
	bob := env.Register(t, "bob", alice.ReferralCode)

	res, err := env.Service.CreditDeposit(ctx, bob.ID, money("100"), "ORDER_1", "")
	require.NoError(t, err)
	requireMoney(t, "7.00", res.Commission)
	require.Equal(t, alice.ID, res.ReferrerID)
	requireMoney(t, "100.00", res.User.DepositWallet)

	referrer := env.User(t, alice.ID)
	requireMoney(t, "7.00", referrer.ReferralWallet)
	requireMoney(t, "7.00", referrer.TotalEarned)
	require.Equal(t, 1, referrer.TotalReferrals)

	txs := env.Transactions(t, alice.ID)
	require.Len(t, txs, 1)
	require.Equal(t, models.TransactionReferralBonus, txs[0].Type)
	requireMoney(t, "7.00", txs[0].Amount)
	require.NotNil(t, txs[0].ReferenceID)
	require.Equal(t, "REF_ORDER_1", *txs[0].ReferenceID)

	deposits := env.Transactions(t, bob.ID)
	require.Len(t, deposits, 1)
	require.Equal(t, models.TransactionDeposit, deposits[0].Type)
	requireMoney(t, "100.00", deposits[0].Amount)
}

func TestCreditDeposit_CommissionRoundsToCents(t *testing.T) {
	env := servicetest.New(t)
	alice := env.Register(t, "alice", "")
	bob := env.Register(t, "bob", alice.ReferralCode)

	res, err := env.Service.CreditDeposit(context.Background(), bob.ID, money("33.33"), "ORDER_1", "")
	require.NoError(t, err)
	requireMoney(t, "2.33", res.Commission)
	requireMoney(t, "2.33", env.User(t, alice.ID).ReferralWallet)
}

func TestCreditDeposit_CountsEveryReferredDeposit(t *testing.T) {
	env := servicetest.New(t)
	ctx := context.Background()
	alice := env.Register(t, "alice", "")
	bob := env.Register(t, "bob", alice.ReferralCode)

	_, err := env.Service.CreditDeposit(ctx, bob.ID, money("100"), "ORDER_1", "")
	require.NoError(t, err)
	_, err = env.Service.CreditDeposit(ctx, bob.ID, money("50"), "ORDER_2", "")
	require.NoError(t, err)

	referrer := env.User(t, alice.ID)
	require.Equal(t, 2, referrer.TotalReferrals)
	requireMoney(t, "10.50", referrer.TotalEarned)
}

func TestCreditDeposit_SameReferenceCreditsOnce(t *testing.T) {
	env := servicetest.New(t)
	ctx := context.Background()
	alice := env.Register(t, "alice", "")
	bob := env.Register(t, "bob", alice.ReferralCode)

	_, err := env.Service.CreditDeposit(ctx, bob.ID, money("100"), "ORDER_1", "")
	require.NoError(t, err)
	_, err = env.Service.CreditDeposit(ctx, bob.ID, money("100"), "ORDER_1", "")
	require.ErrorIs(t, err, service.ErrAlreadyProcessed)

	requireMoney(t, "100.00", env.User(t, bob.ID).DepositWallet)
	requireMoney(t, "7.00", env.User(t, alice.ID).ReferralWallet)
	require.Len(t, env.Transactions(t, bob.ID), 1)
	require.Len(t, env.Transactions(t, alice.ID), 1)
}

func TestCreditDeposit_UnresolvedReferralCodeIsSkipped(t *testing.T) {
	env := servicetest.New(t)
	ctx := context.Background()
	bob := env.Register(t, "bob", "")

	user := env.User(t, bob.ID)
	ghost := "KIRDAZZZZZ"
	user.ReferredBy = &ghost
	require.NoError(t, env.Repo.UpdateUser(ctx, user))

	res, err := env.Service.CreditDeposit(ctx, bob.ID, money("100"), "ORDER_1", "")
	require.NoError(t, err)
	require.True(t, res.Commission.IsZero())
	require.Zero(t, res.ReferrerID)
	requireMoney(t, "100.00", env.User(t, bob.ID).DepositWallet)
}

func TestCreditDeposit_Rejections(t *testing.T) {
	env := servicetest.New(t)
	ctx := context.Background()
	bob := env.Register(t, "bob", "")

	_, err := env.Service.CreditDeposit(ctx, bob.ID, money("0"), "ORDER_1", "")
	require.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = env.Service.CreditDeposit(ctx, bob.ID, money("10"), "", "")
	require.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = env.Service.CreditDeposit(ctx, 9999, money("10"), "ORDER_2", "")
	require.ErrorIs(t, err, service.ErrUserNotFound)
	require.ErrorIs(t, err, service.ErrNotFound)

	require.Empty(t, env.Transactions(t, bob.ID))
}

func TestCreditDeposit_ConcurrentDuplicatesCreditOnce(t *testing.T) {
	env := servicetest.New(t)
	ctx := context.Background()
	bob := env.Register(t, "bob", "")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		credited  int
		duplicate int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.Service.CreditDeposit(ctx, bob.ID, money("25"), "ORDER_1", "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				credited++
			case errors.Is(err, service.ErrAlreadyProcessed):
				duplicate++
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, credited)
	require.Equal(t, 9, duplicate)
	requireMoney(t, "25.00", env.User(t, bob.ID).DepositWallet)
}

func TestCreditDeposit_ConcurrentDistinctReferences(t *testing.T) {
	env := servicetest.New(t)
	ctx := context.Background()
	bob := env.Register(t, "bob", "")

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.Service.CreditDeposit(ctx, bob.ID, money("10.05"), fmt.Sprintf("ORDER_%d", i), "")
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	requireMoney(t, "201.00", env.User(t, bob.ID).DepositWallet)
	require.Len(t, env.Transactions(t, bob.ID), 20)
}

func TestDebitWithdrawal(t *testing.T) {
	env := servicetest.New(t)
	ctx := context.Background()
	bob := env.Register(t, "bob", "")
	env.SetWallets(t, bob.ID, "10", "150", "5")

	_, err := env.Service.DebitWithdrawal(ctx, bob.ID, money("200"), "WTH_1")
	require.ErrorIs(t, err, service.ErrInsufficientBalance)

	_, err = env.Service.DebitWithdrawal(ctx, bob.ID, money("50"), "WTH_2")
	require.ErrorIs(t, err, service.ErrBelowMinimum)

	_, err = env.Service.DebitWithdrawal(ctx, bob.ID, money("-120"), "WTH_3")
	require.ErrorIs(t, err, service.ErrInvalidAmount)

	user := env.User(t, bob.ID)
	requireMoney(t, "150.00", user.WithdrawalWallet)
	require.Empty(t, env.Transactions(t, bob.ID))

	user, err = env.Service.DebitWithdrawal(ctx, bob.ID, money("120"), "WTH_4")
	require.NoError(t, err)
	requireMoney(t, "30.00", user.WithdrawalWallet)
	requireMoney(t, "10.00", user.DepositWallet)
	requireMoney(t, "5.00", user.ReferralWallet)

	txs := env.Transactions(t, bob.ID)
	require.Len(t, txs, 1)
	require.Equal(t, models.TransactionWithdrawal, txs[0].Type)
	requireMoney(t, "-120.00", txs[0].Amount)
}

func TestBalancesNeverGoNegative(t *testing.T) {
	env := servicetest.New(t)
	ctx := context.Background()
	bob := env.Register(t, "bob", "")
	env.SetWallets(t, bob.ID, "0", "250", "0")
	tournament := env.Tournament(t, "40", 10)

	ops := []func() error{
		func() error { _, err := env.Service.DebitWithdrawal(ctx, bob.ID, money("100"), "W1"); return err },
		func() error { _, err := env.Service.JoinTournament(ctx, tournament.ID, bob.ID); return err },
		func() error { _, err := env.Service.DebitWithdrawal(ctx, bob.ID, money("100"), "W2"); return err },
		func() error { _, err := env.Service.DebitWithdrawal(ctx, bob.ID, money("100"), "W3"); return err },
		func() error { _, err := env.Service.CreditDeposit(ctx, bob.ID, money("30"), "D1", ""); return err },
		func() error { _, err := env.Service.JoinTournament(ctx, tournament.ID, bob.ID); return err },
	}
	for _, op := range ops {
		_ = op()
		user := env.User(t, bob.ID)
		for _, balance := range []interface{ IsNegative() bool }{user.DepositWallet, user.WithdrawalWallet, user.ReferralWallet} {
			require.False(t, balance.IsNegative())
		}
	}

	user := env.User(t, bob.ID)
	requireMoney(t, "50.00", user.WithdrawalWallet)
	requireMoney(t, "30.00", user.DepositWallet)
}

func TestBalancesRoundTripThroughFormatting(t *testing.T) {
	env := servicetest.New(t)
	ctx := context.Background()
	alice := env.Register(t, "alice", "")
	bob := env.Register(t, "bob", alice.ReferralCode)
	tournament := env.Tournament(t, "12.35", 10)

	_, err := env.Service.CreditDeposit(ctx, bob.ID, money("45.678"), "ORDER_1", "")
	require.NoError(t, err)
	_, err = env.Service.JoinTournament(ctx, tournament.ID, bob.ID)
	require.NoError(t, err)

	for _, id := range []int64{alice.ID, bob.ID} {
		user := env.User(t, id)
		for _, balance := range []interface{ StringFixed(int32) string }{user.DepositWallet, user.WithdrawalWallet, user.ReferralWallet, user.TotalEarned} {
			formatted := balance.StringFixed(2)
			parsed, err := utils.ParseMoney(formatted)
			require.NoError(t, err)
			require.Equal(t, formatted, utils.FormatMoney(parsed))
		}
	}
	requireMoney(t, "33.33", env.User(t, bob.ID).DepositWallet)
	requireMoney(t, "3.20", env.User(t, alice.ID).ReferralWallet)
}
