package auth

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"
)

var (
	// ErrEmailTaken is returned when an account already exists for an email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrAccountNotFound is returned when no account exists for an email.
	ErrAccountNotFound = errors.New("account not found")
)

// Account is one stored credential record.
type Account struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"password"`
	Username     string    `json:"username"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FileStore persists accounts to a flat JSON file, keyed by email. The whole
// file is loaded at startup and rewritten on every change.
type FileStore struct {
	mu       sync.RWMutex
	path     string
	accounts map[string]Account
}

// OpenFileStore loads the users file at path, creating an empty store when
// the file does not exist yet.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:     path,
		accounts: make(map[string]Account),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &s.accounts); err != nil {
		return nil, err
	}
	return s, nil
}

// Create adds a new account and persists the store.
func (s *FileStore) Create(acc Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[acc.Email]; ok {
		return ErrEmailTaken
	}
	s.accounts[acc.Email] = acc
	return s.save()
}

// FindByEmail returns the account for email.
func (s *FileStore) FindByEmail(email string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[email]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return acc, nil
}

// UsernameExists reports whether any account already owns username.
func (s *FileStore) UsernameExists(username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, acc := range s.accounts {
		if acc.Username == username {
			return true
		}
	}
	return false
}

// Len returns the number of stored accounts.
func (s *FileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

// save writes the store to disk. Callers hold the write lock.
func (s *FileStore) save() error {
	data, err := json.MarshalIndent(s.accounts, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
