package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Fi44er/kirda/internal/models"
	"github.com/Fi44er/kirda/utils"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
)

const tournamentRefPrefix = "TNT_"

type JoinResult struct {
	Entry      *models.TournamentEntry
	User       *models.User
	Tournament *models.Tournament
}

// JoinTournament charges the entry fee from the deposit wallet first and the
// referral wallet for any shortfall, then takes a seat in the tournament.
// The withdrawal wallet is never touched.
func (s *Service) JoinTournament(ctx context.Context, tournamentID, userID int64) (*JoinResult, error) {
	unlockUser := s.locks.lockUser(userID)
	defer unlockUser()
	unlockTournament := s.locks.lockTournament(tournamentID)
	defer unlockTournament()

	result := &JoinResult{}
	err := s.inTx(ctx, func(ctx context.Context) error {
		tournament, err := s.repo.GetTournamentByID(ctx, tournamentID)
		if err != nil {
			return err
		}
		if tournament == nil {
			return ErrTournamentNotFound
		}
		user, err := s.getUser(ctx, userID)
		if err != nil {
			return err
		}

		if tournament.CurrentPlayers >= tournament.MaxPlayers {
			return ErrTournamentFull
		}

		fee := utils.RoundMoney(tournament.EntryFee)
		available := user.DepositWallet.Add(user.ReferralWallet)
		if available.LessThan(fee) {
			return fmt.Errorf("%w: entry fee %s, available %s", ErrInsufficientBalance,
				utils.FormatMoney(fee), utils.FormatMoney(available))
		}

		if user.DepositWallet.GreaterThanOrEqual(fee) {
			user.DepositWallet = utils.RoundMoney(user.DepositWallet.Sub(fee))
		} else {
			shortfall := fee.Sub(user.DepositWallet)
			user.DepositWallet = decimal.Zero
			user.ReferralWallet = utils.RoundMoney(user.ReferralWallet.Sub(shortfall))
		}
		if err := s.repo.UpdateUser(ctx, user); err != nil {
			return err
		}

		entry := &models.TournamentEntry{
			TournamentID: tournament.ID,
			UserID:       user.ID,
			EntryFee:     fee,
			CreatedAt:    s.now(),
		}
		if err := s.repo.CreateTournamentEntry(ctx, entry); err != nil {
			return err
		}

		seated, err := s.repo.IncrementTournamentPlayers(ctx, tournament.ID)
		if err != nil {
			return err
		}
		if !seated {
			return ErrTournamentFull
		}
		tournament.CurrentPlayers++

		user.TournamentsPlayed++
		if err := s.repo.UpdateUser(ctx, user); err != nil {
			return err
		}

		ref := tournamentRefPrefix + strconv.FormatInt(entry.ID, 10)
		description := fmt.Sprintf("Tournament entry: %s", tournament.Name)
		if _, err := s.recordTransaction(ctx, user.ID, models.TransactionTournamentEntry, fee.Neg(), description, ref); err != nil {
			return err
		}

		result.Entry = entry
		result.User = user
		result.Tournament = tournament
		return nil
	})
	if err != nil {
		s.logger.Warnf("User %d could not join tournament %d: %v", userID, tournamentID, err)
		return nil, err
	}

	s.logger.Infof("User %d joined tournament %d for %s", userID, tournamentID, utils.FormatMoney(result.Entry.EntryFee))
	return result, nil
}

func (s *Service) ListGames(ctx context.Context) ([]models.Game, error) {
	return s.repo.ListGames(ctx, true)
}

type CreateGameInput struct {
	Name        string
	DisplayName string
	Icon        string
	Description string
}

// CreateGame derives the game's name from its display name unless one is given.
func (s *Service) CreateGame(ctx context.Context, in CreateGameInput) (*models.Game, error) {
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if in.DisplayName == "" {
		return nil, fmt.Errorf("display name is required: %w", ErrInvalidInput)
	}

	name := slug.Make(in.Name)
	if name == "" {
		name = slug.Make(in.DisplayName)
	}
	if name == "" {
		return nil, fmt.Errorf("game name is empty: %w", ErrInvalidInput)
	}

	game := &models.Game{
		Name:        name,
		DisplayName: in.DisplayName,
		Icon:        in.Icon,
		Description: in.Description,
		IsActive:    true,
	}
	if err := s.repo.CreateGame(ctx, game); err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicateGame
		}
		return nil, err
	}

	s.logger.Infof("Game %s created", game.Name)
	return game, nil
}

func (s *Service) ListTournaments(ctx context.Context, gameID *int64) ([]models.Tournament, error) {
	return s.repo.ListTournaments(ctx, gameID)
}

func (s *Service) GetTournament(ctx context.Context, id int64) (*models.Tournament, error) {
	tournament, err := s.repo.GetTournamentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tournament == nil {
		return nil, ErrTournamentNotFound
	}
	return tournament, nil
}

type CreateTournamentInput struct {
	GameID      int64
	Name        string
	Description string
	EntryFee    decimal.Decimal
	PrizePool   decimal.Decimal
	MaxPlayers  int
	StartTime   time.Time
	Rules       string
	MapName     *string
}

func (s *Service) CreateTournament(ctx context.Context, in CreateTournamentInput) (*models.Tournament, error) {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return nil, fmt.Errorf("tournament name is required: %w", ErrInvalidInput)
	case in.EntryFee.IsNegative():
		return nil, fmt.Errorf("entry fee must not be negative: %w", ErrInvalidAmount)
	case in.PrizePool.IsNegative():
		return nil, fmt.Errorf("prize pool must not be negative: %w", ErrInvalidAmount)
	case in.MaxPlayers <= 0:
		return nil, fmt.Errorf("max players must be positive: %w", ErrInvalidInput)
	case in.StartTime.IsZero():
		return nil, fmt.Errorf("start time is required: %w", ErrInvalidInput)
	}

	game, err := s.repo.GetGameByID(ctx, in.GameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}

	tournament := &models.Tournament{
		GameID:      game.ID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		EntryFee:    utils.RoundMoney(in.EntryFee),
		PrizePool:   utils.RoundMoney(in.PrizePool),
		MaxPlayers:  in.MaxPlayers,
		StartTime:   in.StartTime,
		Status:      models.TournamentStatusUpcoming,
		Rules:       in.Rules,
		MapName:     in.MapName,
	}
	if err := s.repo.CreateTournament(ctx, tournament); err != nil {
		return nil, err
	}
	tournament.Game = game

	s.logger.Infof("Tournament %d (%s) created for game %s", tournament.ID, tournament.Name, game.Name)
	return tournament, nil
}

func (s *Service) ListTournamentEntries(ctx context.Context, tournamentID int64) ([]models.TournamentEntry, error) {
	if _, err := s.GetTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	return s.repo.ListEntriesByTournament(ctx, tournamentID)
}

func (s *Service) ListUserEntries(ctx context.Context, userID int64) ([]models.TournamentEntry, error) {
	return s.repo.ListEntriesByUser(ctx, userID)
}
