package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/Fi44er/kirda/config"
	"github.com/Fi44er/kirda/internal/cashfree"
	"github.com/Fi44er/kirda/internal/models"
	"github.com/Fi44er/kirda/utils"
	"github.com/shopspring/decimal"
)

type Service struct {
	repo     Repository
	gateway  PaymentGateway
	uploader Uploader
	notifier Notifier
	locks    *lockTable
	logger   *utils.Logger
	config   *config.Config

	minDeposit    decimal.Decimal
	minWithdrawal decimal.Decimal
	referralRate  decimal.Decimal
	jwtSecret     []byte
	now           func() time.Time
}

type Repository interface {
	BeginTransaction(ctx context.Context) (context.Context, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context)

	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByReferralCode(ctx context.Context, code string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context) ([]models.User, error)
	CountUsers(ctx context.Context) (int64, error)

	GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error)
	CreateAdmin(ctx context.Context, admin *models.Admin) error

	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	HasTransactionWithReference(ctx context.Context, userID int64, ref string) (bool, error)
	ListTransactionsByUser(ctx context.Context, userID int64) ([]models.Transaction, error)
	ListTransactions(ctx context.Context, limit int) ([]models.Transaction, error)
	SumTransactionsByType(ctx context.Context, txType models.TransactionType) (decimal.Decimal, error)

	ListGames(ctx context.Context, activeOnly bool) ([]models.Game, error)
	GetGameByID(ctx context.Context, id int64) (*models.Game, error)
	CreateGame(ctx context.Context, game *models.Game) error
	ListTournaments(ctx context.Context, gameID *int64) ([]models.Tournament, error)
	GetTournamentByID(ctx context.Context, id int64) (*models.Tournament, error)
	CreateTournament(ctx context.Context, tournament *models.Tournament) error
	IncrementTournamentPlayers(ctx context.Context, id int64) (bool, error)
	CreateTournamentEntry(ctx context.Context, entry *models.TournamentEntry) error
	ListEntriesByTournament(ctx context.Context, tournamentID int64) ([]models.TournamentEntry, error)
	ListEntriesByUser(ctx context.Context, userID int64) ([]models.TournamentEntry, error)

	CreatePaymentOrder(ctx context.Context, order *models.PaymentOrder) error
	GetPaymentOrder(ctx context.Context, orderID string) (*models.PaymentOrder, error)
	UpdatePaymentOrderStatus(ctx context.Context, orderID, status string) error
	ListPendingPaymentOrders(ctx context.Context, createdBefore time.Time) ([]models.PaymentOrder, error)

	CreateWithdrawal(ctx context.Context, withdrawal *models.Withdrawal) error
	GetWithdrawalByTransferID(ctx context.Context, transferID string) (*models.Withdrawal, error)
	UpdateWithdrawalStatus(ctx context.Context, transferID, status string) error
	ListWithdrawalsByStatus(ctx context.Context, statuses ...string) ([]models.Withdrawal, error)
	CountWithdrawalsByStatus(ctx context.Context, status string) (int64, error)

	CreateHelpRequest(ctx context.Context, req *models.HelpRequest) error
	GetHelpRequest(ctx context.Context, id int64) (*models.HelpRequest, error)
	ListHelpRequests(ctx context.Context, status string) ([]models.HelpRequest, error)
	UpdateHelpRequest(ctx context.Context, req *models.HelpRequest) error
	CountHelpRequests(ctx context.Context, status string) (int64, error)

	CreateAdminMessage(ctx context.Context, msg *models.AdminMessage) error
	ListAdminMessages(ctx context.Context, activeOnly bool) ([]models.AdminMessage, error)
	DeactivateAdminMessage(ctx context.Context, id int64) (bool, error)
}

// PaymentGateway is the slice of the Cashfree client the ledger consumes.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req cashfree.CreateOrderRequest) (*cashfree.Order, error)
	VerifyPayment(ctx context.Context, orderID string) (*cashfree.PaymentStatus, error)
	AddBeneficiary(ctx context.Context, b cashfree.Beneficiary) error
	RequestTransfer(ctx context.Context, req cashfree.TransferRequest) (*cashfree.Transfer, error)
	GetTransferStatus(ctx context.Context, transferID string) (*cashfree.Transfer, error)
	VerifyWebhookSignature(timestamp string, body []byte, signature string) error
}

type Uploader interface {
	UploadFile(ctx context.Context, fileHeader *multipart.FileHeader, key string) (string, error)
}

// Notifier delivers operator alerts, e.g. to the admin Telegram chat.
type Notifier interface {
	NotifyAdmin(text string)
}

func NewService(repo Repository, gateway PaymentGateway, uploader Uploader, cfg *config.Config, logger *utils.Logger) (*Service, error) {
	minDeposit, err := decimal.NewFromString(cfg.MinDeposit)
	if err != nil {
		return nil, fmt.Errorf("invalid MIN_DEPOSIT: %w", err)
	}
	minWithdrawal, err := decimal.NewFromString(cfg.MinWithdrawal)
	if err != nil {
		return nil, fmt.Errorf("invalid MIN_WITHDRAWAL: %w", err)
	}
	referralRate, err := decimal.NewFromString(cfg.ReferralRate)
	if err != nil {
		return nil, fmt.Errorf("invalid REFERRAL_RATE: %w", err)
	}

	return &Service{
		repo:          repo,
		gateway:       gateway,
		uploader:      uploader,
		locks:         newLockTable(),
		logger:        logger,
		config:        cfg,
		minDeposit:    minDeposit,
		minWithdrawal: minWithdrawal,
		referralRate:  referralRate,
		jwtSecret:     []byte(cfg.JWTSecret),
		now:           time.Now,
	}, nil
}

func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetClock replaces the time source used for timestamps and order ids.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) GetAdminChatID() int64 {
	return s.config.AdminChatID
}

func (s *Service) notify(format string, args ...any) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyAdmin(fmt.Sprintf(format, args...))
}

// inTx runs fn inside one DB transaction. Locks must be taken before calling
// it: the sqlite pool has a single connection.
func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	txCtx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("Panic occurred: %v", r)
			s.repo.Rollback(txCtx)
			panic(r)
		}
	}()

	if err := fn(txCtx); err != nil {
		s.repo.Rollback(txCtx)
		return err
	}

	if err := s.repo.Commit(txCtx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Service) getUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *Service) recordTransaction(ctx context.Context, userID int64, txType models.TransactionType, amount decimal.Decimal, description, ref string) (*models.Transaction, error) {
	tx := &models.Transaction{
		UserID:      userID,
		Type:        txType,
		Amount:      utils.RoundMoney(amount),
		Description: description,
		Status:      models.TransactionStatusCompleted,
		CreatedAt:   s.now(),
	}
	if ref != "" {
		tx.ReferenceID = &ref
	}
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}
