// Package servicetest builds a service backed by in-memory sqlite and a fake
// payment gateway.
package servicetest

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/Fi44er/kirda/config"
	"github.com/Fi44er/kirda/db"
	"github.com/Fi44er/kirda/internal/cashfree"
	"github.com/Fi44er/kirda/internal/models"
	"github.com/Fi44er/kirda/internal/repository"
	"github.com/Fi44er/kirda/internal/service"
	"github.com/Fi44er/kirda/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const WebhookSecret = "test-webhook-secret"

func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func NewConfig() *config.Config {
	return &config.Config{
		PublicBaseURL:     "http://localhost:5000",
		DBDriver:          db.DriverSQLite,
		DB_URL:            ":memory:",
		JWTSecret:         "test-jwt-secret",
		JWTTTL:            time.Hour,
		AdminUsername:     "admin",
		AdminPassword:     "admin123",
		CashfreeSecretKey: WebhookSecret,
		AdminChatID:       42,
		MinDeposit:        "20",
		MinWithdrawal:     "100",
		ReferralRate:      "0.07",
	}
}

// FakeGateway is an in-memory payment gateway. Orders start PENDING.
type FakeGateway struct {
	mu            sync.Mutex
	orders        map[string]cashfree.PaymentStatus
	transfers     map[string]cashfree.Transfer
	Beneficiaries []cashfree.Beneficiary

	CreateOrderErr error
	VerifyErr      error
	TransferErr    error
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		orders:    make(map[string]cashfree.PaymentStatus),
		transfers: make(map[string]cashfree.Transfer),
	}
}

func (g *FakeGateway) CreateOrder(_ context.Context, req cashfree.CreateOrderRequest) (*cashfree.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.CreateOrderErr != nil {
		return nil, g.CreateOrderErr
	}
	g.orders[req.OrderID] = cashfree.PaymentStatus{OrderID: req.OrderID, Status: cashfree.StatusPending, Amount: req.Amount}
	return &cashfree.Order{
		OrderID:          req.OrderID,
		OrderAmount:      req.Amount,
		OrderCurrency:    req.Currency,
		OrderStatus:      "ACTIVE",
		PaymentSessionID: "session_" + req.OrderID,
	}, nil
}

// SetOrderStatus simulates the customer completing or abandoning checkout.
func (g *FakeGateway) SetOrderStatus(orderID, status string, amount decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders[orderID] = cashfree.PaymentStatus{OrderID: orderID, Status: status, Amount: amount}
}

func (g *FakeGateway) VerifyPayment(_ context.Context, orderID string) (*cashfree.PaymentStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.VerifyErr != nil {
		return nil, g.VerifyErr
	}
	status, ok := g.orders[orderID]
	if !ok {
		return nil, &cashfree.APIError{StatusCode: http.StatusNotFound, Message: "order not found"}
	}
	return &status, nil
}

func (g *FakeGateway) AddBeneficiary(_ context.Context, b cashfree.Beneficiary) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Beneficiaries = append(g.Beneficiaries, b)
	return nil
}

func (g *FakeGateway) RequestTransfer(_ context.Context, req cashfree.TransferRequest) (*cashfree.Transfer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.TransferErr != nil {
		return nil, g.TransferErr
	}
	t := cashfree.Transfer{TransferID: req.TransferID, Status: "PENDING"}
	g.transfers[req.TransferID] = t
	return &t, nil
}

func (g *FakeGateway) SetTransferStatus(transferID, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.transfers[transferID] = cashfree.Transfer{TransferID: transferID, Status: status}
}

func (g *FakeGateway) GetTransferStatus(_ context.Context, transferID string) (*cashfree.Transfer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.transfers[transferID]
	if !ok {
		return nil, &cashfree.APIError{StatusCode: http.StatusNotFound, Message: "transfer not found"}
	}
	return &t, nil
}

func (g *FakeGateway) VerifyWebhookSignature(timestamp string, body []byte, signature string) error {
	return cashfree.VerifySignature(WebhookSecret, timestamp, body, signature)
}

// Notifier records admin alerts.
type Notifier struct {
	mu       sync.Mutex
	Messages []string
}

func (n *Notifier) NotifyAdmin(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Messages = append(n.Messages, text)
}

func (n *Notifier) All() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.Messages...)
}

// Uploader stores nothing and returns a fake CDN URL.
type Uploader struct {
	Keys []string
}

func (u *Uploader) UploadFile(_ context.Context, _ *multipart.FileHeader, key string) (string, error) {
	u.Keys = append(u.Keys, key)
	return "https://cdn.test/" + key, nil
}

type Env struct {
	DB       *gorm.DB
	Repo     *repository.Repository
	Gateway  *FakeGateway
	Uploader *Uploader
	Notifier *Notifier
	Config   *config.Config
	Service  *service.Service
	Game     *models.Game
}

func New(t testing.TB) *Env {
	t.Helper()
	logger := utils.NewNopLogger()
	cfg := NewConfig()

	database, err := db.ConnectDb(cfg.DBDriver, cfg.DB_URL, logger)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database, logger))
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	})

	env := &Env{
		DB:       database,
		Repo:     repository.NewRepository(database, logger),
		Gateway:  NewFakeGateway(),
		Uploader: &Uploader{},
		Notifier: &Notifier{},
		Config:   cfg,
	}
	env.Service, err = service.NewService(env.Repo, env.Gateway, env.Uploader, cfg, logger)
	require.NoError(t, err)
	env.Service.SetNotifier(env.Notifier)

	env.Game = &models.Game{Name: "freefire", DisplayName: "Free Fire", IsActive: true}
	require.NoError(t, env.Repo.CreateGame(context.Background(), env.Game))
	return env
}

func (e *Env) Register(t testing.TB, username, referredBy string) *models.User {
	t.Helper()
	user, err := e.Service.Register(context.Background(), username, "secret123", referredBy)
	require.NoError(t, err)
	return user
}

// SetWallets overwrites a user's balances directly, bypassing the ledger.
func (e *Env) SetWallets(t testing.TB, userID int64, deposit, withdrawal, referral string) {
	t.Helper()
	ctx := context.Background()
	user, err := e.Repo.GetUserByID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, user)
	user.DepositWallet = Money(deposit)
	user.WithdrawalWallet = Money(withdrawal)
	user.ReferralWallet = Money(referral)
	require.NoError(t, e.Repo.UpdateUser(ctx, user))
}

func (e *Env) User(t testing.TB, userID int64) *models.User {
	t.Helper()
	user, err := e.Repo.GetUserByID(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, user)
	return user
}

func (e *Env) Tournament(t testing.TB, entryFee string, maxPlayers int) *models.Tournament {
	t.Helper()
	tournament, err := e.Service.CreateTournament(context.Background(), service.CreateTournamentInput{
		GameID:     e.Game.ID,
		Name:       fmt.Sprintf("Cup %s/%d", entryFee, maxPlayers),
		EntryFee:   Money(entryFee),
		PrizePool:  Money("1000"),
		MaxPlayers: maxPlayers,
		StartTime:  time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	return tournament
}

func (e *Env) Transactions(t testing.TB, userID int64) []models.Transaction {
	t.Helper()
	txs, err := e.Repo.ListTransactionsByUser(context.Background(), userID)
	require.NoError(t, err)
	return txs
}
