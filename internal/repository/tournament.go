package repository

import (
	"context"
	"fmt"

	"github.com/Fi44er/kirda/internal/models"
	"gorm.io/gorm"
)

func (r *Repository) ListGames(ctx context.Context, activeOnly bool) ([]models.Game, error) {
	var games []models.Game
	q := r.conn(ctx).Order("id ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&games).Error; err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}

func (r *Repository) GetGameByID(ctx context.Context, id int64) (*models.Game, error) {
	var game models.Game
	err := r.conn(ctx).First(&game, "id = ?", id).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game %d: %w", id, err)
	}
	return &game, nil
}

func (r *Repository) CreateGame(ctx context.Context, game *models.Game) error {
	if err := r.conn(ctx).Create(game).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("game %s: %w", game.Name, ErrDuplicate)
		}
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

// ListTournaments returns tournaments with their game, optionally filtered by game.
func (r *Repository) ListTournaments(ctx context.Context, gameID *int64) ([]models.Tournament, error) {
	var tournaments []models.Tournament
	q := r.conn(ctx).Preload("Game").Order("start_time ASC").Order("id ASC")
	if gameID != nil {
		q = q.Where("game_id = ?", *gameID)
	}
	if err := q.Find(&tournaments).Error; err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return tournaments, nil
}

func (r *Repository) GetTournamentByID(ctx context.Context, id int64) (*models.Tournament, error) {
	var tournament models.Tournament
	err := r.conn(ctx).Preload("Game").First(&tournament, "id = ?", id).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}
	return &tournament, nil
}

func (r *Repository) CreateTournament(ctx context.Context, tournament *models.Tournament) error {
	if err := r.conn(ctx).Omit("Game").Create(tournament).Error; err != nil {
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

// IncrementTournamentPlayers takes one seat. It reports false when the
// tournament is already at capacity.
func (r *Repository) IncrementTournamentPlayers(ctx context.Context, id int64) (bool, error) {
	res := r.conn(ctx).
		Model(&models.Tournament{}).
		Where("id = ? AND current_players < max_players", id).
		UpdateColumn("current_players", gorm.Expr("current_players + 1"))
	if res.Error != nil {
		return false, fmt.Errorf("failed to increment players for tournament %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) CreateTournamentEntry(ctx context.Context, entry *models.TournamentEntry) error {
	if err := r.conn(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create tournament entry: %w", err)
	}
	return nil
}

func (r *Repository) ListEntriesByTournament(ctx context.Context, tournamentID int64) ([]models.TournamentEntry, error) {
	var entries []models.TournamentEntry
	err := r.conn(ctx).Where("tournament_id = ?", tournamentID).Order("id ASC").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for tournament %d: %w", tournamentID, err)
	}
	return entries, nil
}

func (r *Repository) ListEntriesByUser(ctx context.Context, userID int64) ([]models.TournamentEntry, error) {
	var entries []models.TournamentEntry
	err := r.conn(ctx).Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for user %d: %w", userID, err)
	}
	return entries, nil
}
