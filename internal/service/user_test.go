package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Fi44er/kirda/internal/models"
	"github.com/Fi44er/kirda/internal/service"
	"github.com/Fi44er/kirda/internal/service/servicetest"
	"github.com/Fi44er/kirda/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	env := servicetest.New(t)
	ctx := context.Background()

	alice, err := env.Service.Register(ctx, "  alice ", "secret123", "")
	require.NoError(t, err)
	require.Equal(t, "alice", alice.Username)
	require.Nil(t, alice.ReferredBy)
	require.True(t, strings.HasPrefix(alice.ReferralCode, utils.ReferralCodePrefix))
	require.Len(t, alice.ReferralCode, len(utils.ReferralCodePrefix)+5)
	require.NotEqual(t, "secret123", alice.PasswordHash)

	stored := env.User(t, alice.ID)
	requireMoney(t, "0.00", stored.DepositWallet)
	requireMoney(t, "0.00", stored.WithdrawalWallet)
	requireMoney(t, "0.00", stored.ReferralWallet)

	bob, err := env.Service.Register(ctx, "bob", "secret123", strings.ToLower(alice.ReferralCode))
	require.NoError(t, err)
	require.NotNil(t, bob.ReferredBy)
	require.Equal(t, alice.ReferralCode, *bob.ReferredBy)
	require.NotEqual(t, alice.ReferralCode, bob.ReferralCode)
}

func TestRegister_Rejections(t *testing.T) {
	env := servicetest.New(t)
	ctx := context.Background()
	env.Register(t, "alice", "")

	_, err := env.Service.Register(ctx, "alice", "secret123", "")
	require.ErrorIs(t, err, service.ErrDuplicateUsername)
	require.ErrorIs(t, err, service.ErrConflict)

	_, err = env.Service.Register(ctx, "carol", "secret123", "KIRDA00000")
	require.ErrorIs(t, err, service.ErrInvalidReferralCode)

	_, err = env.Service.Register(ctx, "ab", "secret123", "")
	require.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = env.Service.Register(ctx, "carol", "12345", "")
	require.ErrorIs(t, err, service.ErrInvalidInput)

	users, err := env.Service.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestLoginAndTokens(t *testing.T) {
	env := servicetest.New(t)
	ctx := context.Background()
	alice := env.Register(t, "alice", "")

	_, _, err := env.Service.Login(ctx, "alice", "wrong-password")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, _, err = env.Service.Login(ctx, "nobody", "secret123")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	user, token, err := env.Service.Login(ctx, "alice", "secret123")
	require.NoError(t, err)
	require.Equal(t, alice.ID, user.ID)

	id, role, err := env.Service.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, alice.ID, id)
	require.Equal(t, service.RoleUser, role)

	_, _, err = env.Service.ParseToken(token + "x")
	require.ErrorIs(t, err, service.ErrInvalidToken)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, service.Claims{
		Role:             service.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
	}).SignedString([]byte("some-other-secret"))
	require.NoError(t, err)
	_, _, err = env.Service.ParseToken(forged)
	require.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestParseToken_Expired(t *testing.T) {
	env := servicetest.New(t)
	env.Service.SetClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })

	token, err := env.Service.GenerateToken(7, service.RoleUser)
	require.NoError(t, err)
	_, _, err = env.Service.ParseToken(token)
	require.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestAdminLogin(t *testing.T) {
	env := servicetest.New(t)
	ctx := context.Background()

	_, _, err := env.Service.AdminLogin(ctx, "admin", "admin123")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	require.NoError(t, env.Service.EnsureAdmin(ctx))
	require.NoError(t, env.Service.EnsureAdmin(ctx))

	admin, token, err := env.Service.AdminLogin(ctx, "admin", "admin123")
	require.NoError(t, err)

	id, role, err := env.Service.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, admin.ID, id)
	require.Equal(t, service.RoleAdmin, role)
}

func TestGetStats(t *testing.T) {
	env := servicetest.New(t)
	ctx := context.Background()
	alice := env.Register(t, "alice", "")

	stats, err := env.Service.GetStats(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, "0%", stats.WinRate)

	user := env.User(t, alice.ID)
	user.TournamentsPlayed = 3
	user.Wins = 1
	require.NoError(t, env.Repo.UpdateUser(ctx, user))

	stats, err = env.Service.GetStats(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, "33%", stats.WinRate)
	require.Equal(t, 3, stats.TournamentsPlayed)

	require.Equal(t, "67%", service.WinRate(2, 3))
	require.Equal(t, "100%", service.WinRate(4, 4))

	_, err = env.Service.GetStats(ctx, 9999)
	require.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestListUserTransactions_NewestFirst(t *testing.T) {
	env := servicetest.New(t)
	ctx := context.Background()
	bob := env.Register(t, "bob", "")

	now := time.Now()
	env.Service.SetClock(func() time.Time { return now })
	for _, ref := range []string{"ORDER_1", "ORDER_2", "ORDER_3"} {
		_, err := env.Service.CreditDeposit(ctx, bob.ID, money("20"), ref, "")
		require.NoError(t, err)
		now = now.Add(time.Second)
	}

	txs, err := env.Service.ListUserTransactions(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	require.Equal(t, "ORDER_3", *txs[0].ReferenceID)
	require.Equal(t, "ORDER_1", *txs[2].ReferenceID)
	for _, tx := range txs {
		require.Equal(t, models.TransactionStatusCompleted, tx.Status)
	}
}
