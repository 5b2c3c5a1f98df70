// Package accounts provides account credentials, login, and session refresh.
package accounts

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Errors returned by account operations.
var (
	ErrNotFound           = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveAccount    = errors.New("account is inactive")
)

// Store is the persistence boundary for accounts, backed by the same
// configured database as the asset store.
type Store interface {
	// GetAccountByID returns the account record by id. ErrNotFound when absent.
	GetAccountByID(ctx context.Context, id string) (Record, error)
	// GetAccountByUsername returns the account record by username.
	GetAccountByUsername(ctx context.Context, username string) (Record, error)
	// CountAccounts returns the number of account rows.
	CountAccounts(ctx context.Context) (int64, error)
	// InsertAccount persists a new account record.
	InsertAccount(ctx context.Context, record Record) error
}

// Service provides credential checks for login and per-request access refresh.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates an accounts service over the configured store.
func NewService(log *slog.Logger, store Store) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:  store,
		logger: log.With(slog.String("service", "accounts")),
	}
}

// Login authenticates by username and password.
func (s *Service) Login(ctx context.Context, username, password string) (Account, error) {
	if s.store == nil {
		return Account{}, errors.New("account store not configured")
	}
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return Account{}, ErrInvalidCredentials
	}
	record, err := s.store.GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, err
	}
	if !record.IsActive {
		return Account{}, ErrInactiveAccount
	}
	if bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)) != nil {
		return Account{}, ErrInvalidCredentials
	}
	return record.account(), nil
}

// Refresh re-reads the caller's account before a write operation runs.
// A missing or deactivated account short-circuits the request.
func (s *Service) Refresh(ctx context.Context, userID string) (Account, error) {
	if s.store == nil {
		return Account{}, errors.New("account store not configured")
	}
	record, err := s.store.GetAccountByID(ctx, strings.TrimSpace(userID))
	if err != nil {
		return Account{}, err
	}
	if !record.IsActive {
		return Account{}, ErrInactiveAccount
	}
	return record.account(), nil
}

// EnsureAdmin seeds the administrator account when the accounts table is empty.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	if s.store == nil {
		return errors.New("account store not configured")
	}
	count, err := s.store.CountAccounts(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return errors.New("admin username/password required in config.toml")
	}
	if password == "change-your-password-here" {
		s.logger.Warn("admin password uses default placeholder; please update config.toml")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.store.InsertAccount(ctx, Record{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hashed),
		Role:         "admin",
		IsActive:     true,
	}); err != nil {
		return err
	}
	s.logger.Info("admin account created", slog.String("username", username))
	return nil
}
