package tokenstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/felixgeelhaar/legaltime/internal/errors"
)

// entry is one persisted slot.
type entry struct {
	Value     string    `json:"value"`
	Encrypted bool      `json:"encrypted,omitempty"`
	Salt      string    `json:"salt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FileStore keeps the token in a JSON file readable only by the owner.
// With a passphrase the value is sealed with AES-GCM.
type FileStore struct {
	mu         sync.Mutex
	path       string
	passphrase string
	now        func() time.Time
}

var _ Store = (*FileStore)(nil)

// NewFileStore stores the token in plain text at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// NewEncryptedFileStore seals the token with a key derived from passphrase.
func NewEncryptedFileStore(path, passphrase string) *FileStore {
	return &FileStore{path: path, passphrase: passphrase, now: time.Now}
}

// InHome returns a store at <home>/credentials.json, encrypted when a
// passphrase is given.
func InHome(home, passphrase string) *FileStore {
	path := filepath.Join(home, FileName)
	if passphrase != "" {
		return NewEncryptedFileStore(path, passphrase)
	}
	return NewFileStore(path)
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Encrypted reports whether new tokens are sealed before writing.
func (s *FileStore) Encrypted() bool {
	return s.passphrase != ""
}

func (s *FileStore) Load() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots, err := s.read()
	if err != nil {
		return "", false, err
	}

	e, ok := slots[Key]
	if !ok || e.Value == "" {
		return "", false, nil
	}

	if !e.Encrypted {
		return e.Value, true, nil
	}

	if s.passphrase == "" {
		return "", false, errors.New(errors.ErrCodeTokenStore, "stored token is encrypted").
			WithSuggestion("Set LEGALTIME_TOKEN_PASSPHRASE to the passphrase used at login")
	}

	value, err := open(s.passphrase, e.Salt, e.Value)
	if err != nil {
		return "", false, errors.Wrap(errors.ErrCodeTokenStore, "failed to decrypt stored token", err).
			WithSuggestion("Check LEGALTIME_TOKEN_PASSPHRASE or log in again")
	}
	return value, true, nil
}

func (s *FileStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots, err := s.read()
	if err != nil {
		// An unreadable file is replaced rather than blocking login.
		slots = map[string]entry{}
	}

	e := entry{Value: token, UpdatedAt: s.now().UTC()}
	if s.passphrase != "" {
		salt, sealed, err := seal(s.passphrase, token)
		if err != nil {
			return errors.Wrap(errors.ErrCodeTokenStore, "failed to encrypt token", err)
		}
		e.Value, e.Salt, e.Encrypted = sealed, salt, true
	}
	slots[Key] = e

	return s.write(slots)
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots, err := s.read()
	if err == nil {
		delete(slots, Key)
		if len(slots) > 0 {
			return s.write(slots)
		}
	}

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to remove credentials file", err)
	}
	return nil
}

func (s *FileStore) read() (map[string]entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]entry{}, nil
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "failed to read credentials file", err)
	}

	slots := map[string]entry{}
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTokenStore, fmt.Sprintf("credentials file %s is corrupt", s.path), err).
			WithSuggestion("Run 'legaltime auth logout' to reset it")
	}
	return slots, nil
}

func (s *FileStore) write(slots map[string]entry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to create credentials directory", err)
	}

	data, err := json.MarshalIndent(slots, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeTokenStore, "failed to encode credentials", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to write credentials file", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to write credentials file", err)
	}
	return nil
}
