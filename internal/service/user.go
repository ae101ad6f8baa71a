package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Fi44er/kirda/internal/models"
	"github.com/Fi44er/kirda/internal/repository"
	"github.com/Fi44er/kirda/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	referralCodeAttempts = 10
	minUsernameLen       = 3
	maxUsernameLen       = 50
	minPasswordLen       = 6
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func isDuplicate(err error) bool {
	return errors.Is(err, repository.ErrDuplicate)
}

// Register creates a user with empty wallets and a fresh referral code.
// A non-empty referredBy must name an existing user's code.
func (s *Service) Register(ctx context.Context, username, password, referredBy string) (*models.User, error) {
	username = strings.TrimSpace(username)
	referredBy = strings.ToUpper(strings.TrimSpace(referredBy))

	if n := len(username); n < minUsernameLen || n > maxUsernameLen {
		return nil, fmt.Errorf("username must be %d to %d characters: %w", minUsernameLen, maxUsernameLen, ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, ErrInvalidInput)
	}

	existing, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateUsername
	}

	user := &models.User{Username: username}
	if referredBy != "" {
		referrer, err := s.repo.GetUserByReferralCode(ctx, referredBy)
		if err != nil {
			return nil, err
		}
		if referrer == nil {
			return nil, ErrInvalidReferralCode
		}
		user.ReferredBy = &referrer.ReferralCode
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	for attempt := 1; ; attempt++ {
		code, err := s.uniqueReferralCode(ctx)
		if err != nil {
			return nil, err
		}
		user.ReferralCode = code
		user.CreatedAt = s.now()

		err = s.repo.CreateUser(ctx, user)
		if err == nil {
			break
		}
		if !isDuplicate(err) {
			return nil, err
		}

		// Either the username or the code raced with another registration.
		taken, lookupErr := s.repo.GetUserByUsername(ctx, username)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if taken != nil {
			return nil, ErrDuplicateUsername
		}
		if attempt >= referralCodeAttempts {
			return nil, fmt.Errorf("could not allocate a referral code: %w", ErrConflict)
		}
		user.ID = 0
	}

	s.logger.Infof("User %d (%s) registered with referral code %s", user.ID, user.Username, user.ReferralCode)
	return user, nil
}

func (s *Service) uniqueReferralCode(ctx context.Context) (string, error) {
	for i := 0; i < referralCodeAttempts; i++ {
		code, err := utils.GenerateReferralCode()
		if err != nil {
			return "", fmt.Errorf("failed to generate referral code: %w", err)
		}
		owner, err := s.repo.GetUserByReferralCode(ctx, code)
		if err != nil {
			return "", err
		}
		if owner == nil {
			return code, nil
		}
		s.logger.Debugf("Referral code %s collided, retrying", code)
	}
	return "", fmt.Errorf("could not allocate a referral code: %w", ErrConflict)
}

// Login checks the password and returns the user with a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	user, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.GenerateToken(user.ID, RoleUser)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *Service) AdminLogin(ctx context.Context, username, password string) (*models.Admin, string, error) {
	admin, err := s.repo.GetAdminByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, "", err
	}
	if admin == nil {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.GenerateToken(admin.ID, RoleAdmin)
	if err != nil {
		return nil, "", err
	}
	s.logger.Infof("Admin %s logged in", admin.Username)
	return admin, token, nil
}

// EnsureAdmin seeds the configured admin account when it does not exist yet.
func (s *Service) EnsureAdmin(ctx context.Context) error {
	username, password := s.config.AdminUsername, s.config.AdminPassword
	if username == "" || password == "" {
		s.logger.Warn("ADMIN_USERNAME/ADMIN_PASSWORD not set, admin panel login disabled")
		return nil
	}

	existing, err := s.repo.GetAdminByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	if err := s.repo.CreateAdmin(ctx, &models.Admin{Username: username, PasswordHash: string(hash), CreatedAt: s.now()}); err != nil {
		return err
	}

	s.logger.Infof("Admin %s created", username)
	return nil
}

func (s *Service) GenerateToken(subjectID int64, role string) (string, error) {
	now := s.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subjectID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL())),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *Service) tokenTTL() time.Duration {
	if s.config.JWTTTL > 0 {
		return s.config.JWTTTL
	}
	return 24 * time.Hour
}

// ParseToken validates a token and returns its subject id and role.
func (s *Service) ParseToken(tokenString string) (int64, string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return 0, "", ErrInvalidToken
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, "", ErrInvalidToken
	}
	return id, claims.Role, nil
}

func (s *Service) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	return s.getUser(ctx, userID)
}

// GetStats derives the win rate from the stored counters on every call.
func (s *Service) GetStats(ctx context.Context, userID int64) (*models.UserStats, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.UserStats{
		TournamentsPlayed: user.TournamentsPlayed,
		Wins:              user.Wins,
		WinRate:           WinRate(user.Wins, user.TournamentsPlayed),
		TotalEarned:       utils.RoundMoney(user.TotalEarned),
	}, nil
}

func WinRate(wins, played int) string {
	return fmt.Sprintf("%d%%", utils.RoundedPercent(wins, played))
}

// ListUserTransactions returns the user's ledger, newest first.
func (s *Service) ListUserTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	return s.repo.ListTransactionsByUser(ctx, userID)
}
