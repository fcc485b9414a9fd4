package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mindmaster/mindmapd/internal/common"
	"github.com/mindmaster/mindmapd/internal/server/auth"
	"github.com/mindmaster/mindmapd/internal/server/config"
	"github.com/mindmaster/mindmapd/internal/server/models"
	"github.com/mindmaster/mindmapd/internal/server/repositories/repomanager"
)

// UserService handles registration, login, password changes, and the admin
// bootstrap. It is also where session tokens are minted.
type UserService struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	jwtSecret             []byte
	tokenValidityDuration time.Duration
	adminUsername         string
	adminPassword         string
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                    db,
		repomanager:           m,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
		adminUsername:         cfg.AdminUsername,
		adminPassword:         cfg.AdminPassword,
	}
}

// Register creates a non-admin account and returns it with a fresh session
// token. A duplicate username yields common.ErrorUsernameTaken and leaves
// the existing account untouched.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, string, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", common.ErrorInternal
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.Create(ctx, &models.User{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    timeNow(),
	})
	if err != nil {
		if errors.Is(err, common.ErrorUsernameTaken) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("error creating user: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies the credentials and returns the account with a fresh
// session token. Unknown username and wrong password both yield
// common.ErrorUnauthorized; the caller cannot tell which half was wrong.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", common.ErrorUnauthorized
		}
		return nil, "", common.ErrorInternal
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, "", common.ErrorUnauthorized
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ResolveToken verifies a bearer token and re-reads the account row. The
// token is a claim, not a cache: a deleted or altered account is reflected
// immediately, and the embedded username is never trusted.
func (s *UserService) ResolveToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}

// ChangePassword replaces the caller's verifier after checking the current
// password. A mismatch yields common.ErrorWrongPassword.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorWrongPassword
		}
		return common.ErrorInternal
	}
	if !auth.VerifyPassword(currentPassword, user.PasswordHash) {
		return common.ErrorWrongPassword
	}
	return s.setPassword(ctx, userID, newPassword)
}

// ResetPassword replaces a user's verifier unconditionally. Admin only; the
// boundary has already checked the privilege flag.
func (s *UserService) ResetPassword(ctx context.Context, userID int64, newPassword string) error {
	repo := s.repomanager.Users(s.db)
	if _, err := repo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return common.ErrorInternal
	}
	return s.setPassword(ctx, userID, newPassword)
}

// ListUsers returns every account with its file count. Admin only.
func (s *UserService) ListUsers(ctx context.Context) ([]*models.UserSummary, error) {
	return s.repomanager.Users(s.db).ListWithFileCounts(ctx)
}

// EnsureAdmin makes sure the reserved admin account exists with the
// privilege flag set. Runs on every start and is idempotent: an existing
// account is upgraded in place, never recreated, and its password is never
// touched. The default credentials must be changed in any real deployment.
func (s *UserService) EnsureAdmin(ctx context.Context) error {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUsername(ctx, s.adminUsername)
	if err == nil {
		if user.IsAdmin {
			return nil
		}
		return repo.SetAdmin(ctx, user.ID, true)
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("error looking up admin account: %w", err)
	}

	hash, err := auth.HashPassword(s.adminPassword)
	if err != nil {
		return err
	}
	_, err = repo.Create(ctx, &models.User{
		Username:     s.adminUsername,
		PasswordHash: hash,
		CreatedAt:    timeNow(),
		IsAdmin:      true,
	})
	if err != nil {
		// another instance bootstrapping in parallel created it first
		if errors.Is(err, common.ErrorUsernameTaken) {
			return nil
		}
		return fmt.Errorf("error creating admin account: %w", err)
	}
	return nil
}

func (s *UserService) setPassword(ctx context.Context, userID int64, newPassword string) error {
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return common.ErrorInternal
	}
	if err := s.repomanager.Users(s.db).UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return common.ErrorInternal
	}
	return nil
}

func (s *UserService) issueToken(user *models.User) (string, error) {
	token, err := auth.GenerateToken(user.ID, user.Username, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}
