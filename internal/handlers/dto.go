package handlers

import (
	"time"

	"github.com/Fi44er/kirda/internal/models"
	"github.com/Fi44er/kirda/utils"
)

type userResponse struct {
	ID                int64     `json:"id"`
	Username          string    `json:"username"`
	ReferralCode      string    `json:"referral_code"`
	ReferredBy        *string   `json:"referred_by"`
	DepositWallet     string    `json:"deposit_wallet"`
	WithdrawalWallet  string    `json:"withdrawal_wallet"`
	ReferralWallet    string    `json:"referral_wallet"`
	TotalEarned       string    `json:"total_earned"`
	TotalReferrals    int       `json:"total_referrals"`
	TournamentsPlayed int       `json:"tournaments_played"`
	Wins              int       `json:"wins"`
	CreatedAt         time.Time `json:"created_at"`
}

func toUser(u *models.User) userResponse {
	return userResponse{
		ID:                u.ID,
		Username:          u.Username,
		ReferralCode:      u.ReferralCode,
		ReferredBy:        u.ReferredBy,
		DepositWallet:     utils.FormatMoney(u.DepositWallet),
		WithdrawalWallet:  utils.FormatMoney(u.WithdrawalWallet),
		ReferralWallet:    utils.FormatMoney(u.ReferralWallet),
		TotalEarned:       utils.FormatMoney(u.TotalEarned),
		TotalReferrals:    u.TotalReferrals,
		TournamentsPlayed: u.TournamentsPlayed,
		Wins:              u.Wins,
		CreatedAt:         u.CreatedAt,
	}
}

func toUsers(users []models.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for i := range users {
		out = append(out, toUser(&users[i]))
	}
	return out
}

type transactionResponse struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Type        string    `json:"type"`
	Amount      string    `json:"amount"`
	Description string    `json:"description"`
	ReferenceID *string   `json:"reference_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func toTransactions(txs []models.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, transactionResponse{
			ID:          tx.ID,
			UserID:      tx.UserID,
			Type:        string(tx.Type),
			Amount:      utils.FormatMoney(tx.Amount),
			Description: tx.Description,
			ReferenceID: tx.ReferenceID,
			Status:      tx.Status,
			CreatedAt:   tx.CreatedAt,
		})
	}
	return out
}

type tournamentResponse struct {
	ID             int64        `json:"id"`
	GameID         int64        `json:"game_id"`
	Game           *models.Game `json:"game,omitempty"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	EntryFee       string       `json:"entry_fee"`
	PrizePool      string       `json:"prize_pool"`
	MaxPlayers     int          `json:"max_players"`
	CurrentPlayers int          `json:"current_players"`
	StartTime      time.Time    `json:"start_time"`
	Status         string       `json:"status"`
	Rules          string       `json:"rules"`
	MapName        *string      `json:"map_name"`
}

func toTournament(t *models.Tournament) tournamentResponse {
	return tournamentResponse{
		ID:             t.ID,
		GameID:         t.GameID,
		Game:           t.Game,
		Name:           t.Name,
		Description:    t.Description,
		EntryFee:       utils.FormatMoney(t.EntryFee),
		PrizePool:      utils.FormatMoney(t.PrizePool),
		MaxPlayers:     t.MaxPlayers,
		CurrentPlayers: t.CurrentPlayers,
		StartTime:      t.StartTime,
		Status:         t.Status,
		Rules:          t.Rules,
		MapName:        t.MapName,
	}
}

type entryResponse struct {
	ID           int64     `json:"id"`
	TournamentID int64     `json:"tournament_id"`
	UserID       int64     `json:"user_id"`
	EntryFee     string    `json:"entry_fee"`
	Position     *int      `json:"position"`
	Prize        *string   `json:"prize"`
	CreatedAt    time.Time `json:"created_at"`
}

func toEntry(e *models.TournamentEntry) entryResponse {
	out := entryResponse{
		ID:           e.ID,
		TournamentID: e.TournamentID,
		UserID:       e.UserID,
		EntryFee:     utils.FormatMoney(e.EntryFee),
		Position:     e.Position,
		CreatedAt:    e.CreatedAt,
	}
	if e.Prize.Valid {
		prize := utils.FormatMoney(e.Prize.Decimal)
		out.Prize = &prize
	}
	return out
}

func toEntries(entries []models.TournamentEntry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, toEntry(&entries[i]))
	}
	return out
}

type withdrawalResponse struct {
	TransferID  string    `json:"transfer_id"`
	Amount      string    `json:"amount"`
	BankAccount string    `json:"bank_account"`
	IFSC        string    `json:"ifsc"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toWithdrawal(w *models.Withdrawal) withdrawalResponse {
	return withdrawalResponse{
		TransferID:  w.TransferID,
		Amount:      utils.FormatMoney(w.Amount),
		BankAccount: w.BankAccount,
		IFSC:        w.IFSC,
		Status:      w.Status,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}
