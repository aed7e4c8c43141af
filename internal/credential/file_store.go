package credential

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/saulo-duarte/goal-tracker/internal/config"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Sealer encrypts the token before it touches disk.
type Sealer interface {
	Encrypt(text string) (string, error)
	Decrypt(encoded string) (string, error)
}

type fileRecord struct {
	Token    string `yaml:"token"`
	Sealed   bool   `yaml:"sealed"`
	UserID   string `yaml:"user_id"`
	Username string `yaml:"username"`
}

// FileStore keeps the credential in a YAML file that survives restarts.
// Writes go through a temp file and a rename so readers never observe a
// half-written credential.
type FileStore struct {
	path   string
	sealer Sealer
	mu     sync.Mutex
}

// NewFileStore returns a store backed by path. sealer may be nil, in which
// case the token is stored in clear text and protected only by file mode.
func NewFileStore(path string, sealer Sealer) *FileStore {
	return &FileStore{path: path, sealer: sealer}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Save(c Credential) error {
	if !c.Complete() {
		return ErrIncompleteCredential
	}

	rec := fileRecord{Token: c.Token, UserID: c.UserID, Username: c.Username}
	if s.sealer != nil {
		sealed, err := s.sealer.Encrypt(c.Token)
		if err != nil {
			return fmt.Errorf("seal token: %w", err)
		}
		rec.Token = sealed
		rec.Sealed = true
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("ensure credential dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credential-*")
	if err != nil {
		return fmt.Errorf("create temp credential: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write credential: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace credential: %w", err)
	}
	return nil
}

func (s *FileStore) Load() (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoCredential
		}
		return nil, fmt.Errorf("read credential: %w", err)
	}

	log := config.WithContext(context.Background()).WithField("path", s.path)

	var rec fileRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		log.WithError(err).Warn("Discarding unreadable credential file")
		s.discardLocked(log)
		return nil, ErrNoCredential
	}

	token := rec.Token
	if rec.Sealed {
		if s.sealer == nil {
			log.Warn("Credential is sealed but no key is configured")
			s.discardLocked(log)
			return nil, ErrNoCredential
		}
		token, err = s.sealer.Decrypt(rec.Token)
		if err != nil {
			log.WithError(err).Warn("Discarding credential that cannot be unsealed")
			s.discardLocked(log)
			return nil, ErrNoCredential
		}
	}

	c := Credential{Token: token, UserID: rec.UserID, Username: rec.Username}
	if !c.Complete() {
		log.Warn("Discarding partial credential")
		s.discardLocked(log)
		return nil, ErrNoCredential
	}
	return &c, nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked()
}

// discardLocked drops an unusable credential file. Load still reports the
// credential as absent when the file cannot be removed.
func (s *FileStore) discardLocked(log *logrus.Entry) {
	if err := s.removeLocked(); err != nil {
		log.WithError(err).Warn("Failed to remove unusable credential file")
	}
}

func (s *FileStore) removeLocked() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credential: %w", err)
	}
	return nil
}
