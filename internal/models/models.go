package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionDeposit         TransactionType = "deposit"
	TransactionWithdrawal      TransactionType = "withdrawal"
	TransactionTournamentEntry TransactionType = "tournament_entry"
	TransactionReferralBonus   TransactionType = "referral_bonus"
)

const TransactionStatusCompleted = "completed"

const (
	TournamentStatusUpcoming = "upcoming"

	HelpStatusOpen     = "open"
	HelpStatusResolved = "resolved"
)

// Payment order statuses mirror the gateway's order_status values.
const (
	OrderStatusPending = "PENDING"
	OrderStatusPaid    = "PAID"
	OrderStatusFailed  = "FAILED"
	OrderStatusExpired = "EXPIRED"
)

const (
	WithdrawalStatusPending  = "PENDING"
	WithdrawalStatusSuccess  = "SUCCESS"
	WithdrawalStatusFailed   = "FAILED"
	WithdrawalStatusRejected = "REJECTED"
	WithdrawalStatusReversed = "REVERSED"
)

type User struct {
	ID           int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string  `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash string  `gorm:"not null" json:"-"`
	ReferralCode string  `gorm:"uniqueIndex;size:16;not null" json:"referral_code"`
	ReferredBy   *string `gorm:"index;size:16" json:"referred_by,omitempty"`

	DepositWallet    decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"deposit_wallet"`
	WithdrawalWallet decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"withdrawal_wallet"`
	ReferralWallet   decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"referral_wallet"`

	TotalEarned       decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"total_earned"`
	TotalReferrals    int             `gorm:"not null;default:0" json:"total_referrals"`
	TournamentsPlayed int             `gorm:"not null;default:0" json:"tournaments_played"`
	Wins              int             `gorm:"not null;default:0" json:"wins"`

	CreatedAt time.Time `json:"created_at"`
}

// Admin is a panel operator; credentials are bcrypt hashes.
type Admin struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Game struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	DisplayName string    `gorm:"not null" json:"display_name"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type Tournament struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	GameID         int64           `gorm:"index;not null" json:"game_id"`
	Game           *Game           `gorm:"foreignKey:GameID" json:"game,omitempty"`
	Name           string          `gorm:"not null" json:"name"`
	Description    string          `json:"description"`
	EntryFee       decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"entry_fee"`
	PrizePool      decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"prize_pool"`
	MaxPlayers     int             `gorm:"not null" json:"max_players"`
	CurrentPlayers int             `gorm:"not null;default:0" json:"current_players"`
	StartTime      time.Time       `gorm:"not null" json:"start_time"`
	Status         string          `gorm:"size:32;not null;default:upcoming" json:"status"`
	Rules          string          `json:"rules"`
	MapName        *string         `json:"map_name,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TournamentEntry keeps the fee charged at join time; later fee edits never touch it.
type TournamentEntry struct {
	ID           int64               `gorm:"primaryKey;autoIncrement" json:"id"`
	TournamentID int64               `gorm:"index;not null" json:"tournament_id"`
	UserID       int64               `gorm:"index;not null" json:"user_id"`
	EntryFee     decimal.Decimal     `gorm:"type:numeric(20,2);not null" json:"entry_fee"`
	Position     *int                `json:"position,omitempty"`
	Prize        decimal.NullDecimal `gorm:"type:numeric(20,2)" json:"prize,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// Transaction is the append-only audit record behind every wallet change.
type Transaction struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64           `gorm:"index:idx_transactions_user_ref;not null" json:"user_id"`
	Type        TransactionType `gorm:"size:32;not null" json:"type"`
	Amount      decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Description string          `json:"description"`
	ReferenceID *string         `gorm:"index:idx_transactions_user_ref;size:128" json:"reference_id,omitempty"`
	Status      string          `gorm:"size:32;not null;default:completed" json:"status"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
}

// PaymentOrder tracks a gateway order from creation until it is credited or abandoned.
type PaymentOrder struct {
	OrderID          string          `gorm:"primaryKey;size:64" json:"order_id"`
	UserID           int64           `gorm:"index;not null" json:"user_id"`
	Amount           decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Currency         string          `gorm:"size:8;not null" json:"currency"`
	Status           string          `gorm:"size:16;index;not null" json:"status"`
	PaymentSessionID string          `json:"payment_session_id"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type Withdrawal struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            int64           `gorm:"index;not null" json:"user_id"`
	TransferID        string          `gorm:"uniqueIndex;size:64;not null" json:"transfer_id"`
	BeneficiaryID     string          `gorm:"size:64" json:"beneficiary_id"`
	Amount            decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	BankAccount       string          `gorm:"size:32" json:"bank_account"`
	IFSC              string          `gorm:"size:16" json:"ifsc"`
	AccountHolderName string          `json:"account_holder_name"`
	Status            string          `gorm:"size:16;index;not null" json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type HelpRequest struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64     `gorm:"index;not null" json:"user_id"`
	IssueType     string    `gorm:"not null" json:"issue_type"`
	Description   string    `gorm:"not null" json:"description"`
	TournamentID  *int64    `json:"tournament_id,omitempty"`
	Status        string    `gorm:"size:16;not null;default:open" json:"status"`
	AdminResponse *string   `json:"admin_response,omitempty"`
	AttachmentURL string    `json:"attachment_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type AdminMessage struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	Message   string    `gorm:"not null" json:"message"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserStats is derived on every read and never stored.
type UserStats struct {
	TournamentsPlayed int             `json:"tournaments_played"`
	Wins              int             `json:"wins"`
	WinRate           string          `json:"win_rate"`
	TotalEarned       decimal.Decimal `json:"total_earned"`
}

type PlatformStats struct {
	Users              int64
	DepositWallets     decimal.Decimal
	WithdrawalWallets  decimal.Decimal
	ReferralWallets    decimal.Decimal
	TotalDeposited     decimal.Decimal
	TotalWithdrawn     decimal.Decimal
	OpenHelpRequests   int64
	PendingWithdrawals int64
}
