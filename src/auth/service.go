// Package auth is the credential collaborator in front of the messaging
// core: it stores accounts, verifies passwords, and hands out the stable
// display username a session carries into registration.
package auth

import (
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/anonchat/server/src/identity"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidCredentials is returned when login credentials are wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidEmail is returned when the email does not parse.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrMissingFields is returned when email or password is empty.
	ErrMissingFields = errors.New("email and password are required")
)

// Service handles registration and login against the file store.
type Service struct {
	store  *FileStore
	hasher *PasswordHasher
	alloc  *identity.Allocator
	logger zerolog.Logger
}

// NewService creates an auth Service.
func NewService(store *FileStore, hasher *PasswordHasher, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		hasher: hasher,
		alloc:  identity.NewAllocator(),
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

// Register creates an account, minting a fresh display username for it.
func (s *Service) Register(email, password string) (Account, error) {
	if email == "" || password == "" {
		return Account{}, ErrMissingFields
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return Account{}, ErrInvalidEmail
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return Account{}, fmt.Errorf("hash password: %w", err)
	}

	username, err := s.alloc.Allocate(s.store.UsernameExists)
	if err != nil {
		return Account{}, fmt.Errorf("mint username: %w", err)
	}

	acc := Account{
		Email:        email,
		PasswordHash: hash,
		Username:     username,
		CreatedAt:    time.Now(),
	}
	if err := s.store.Create(acc); err != nil {
		return Account{}, err
	}

	s.logger.Info().Str("username", username).Msg("account created")
	return acc, nil
}

// Login verifies the credentials and returns the stored account.
func (s *Service) Login(email, password string) (Account, error) {
	if email == "" || password == "" {
		return Account{}, ErrMissingFields
	}

	acc, err := s.store.FindByEmail(email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, err
	}
	if !s.hasher.Verify(password, acc.PasswordHash) {
		return Account{}, ErrInvalidCredentials
	}
	return acc, nil
}
