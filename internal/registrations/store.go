package registrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/nmrschool/webinar-backend/internal/models"
)

// ErrPersistence wraps failures to write the durable copy of the records.
// The in-memory append has already happened when it is returned.
var ErrPersistence = errors.New("persist registrations")

// Store is an append-only list of registrations, most recent first.
type Store interface {
	Append(ctx context.Context, reg *models.Registration) error
	List(ctx context.Context) ([]models.Registration, error)
}

// FileStore keeps all records in memory and rewrites one JSON file on every append.
type FileStore struct {
	mu      sync.Mutex
	path    string
	lock    *flock.Flock
	records []models.Registration
	logger  *zap.Logger
}

// OpenFileStore loads path if present. A missing file starts empty; an unreadable
// or corrupt file is logged and also starts empty.
func OpenFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &FileStore{
		path:    path,
		lock:    flock.New(path + ".lock"),
		records: []models.Registration{},
		logger:  logger,
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		logger.Error("create data dir failed", zap.String("path", path), zap.Error(err))
		return s
	}

	// #nosec G304 -- path comes from operator configuration
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Error("read registrations file failed", zap.String("path", path), zap.Error(err))
		}
		return s
	}
	var records []models.Registration
	if err := json.Unmarshal(data, &records); err != nil {
		logger.Error("parse registrations file failed, starting empty", zap.String("path", path), zap.Error(err))
		return s
	}
	if records != nil {
		s.records = records
	}
	logger.Info("registrations loaded", zap.String("path", path), zap.Int("count", len(s.records)))
	return s
}

// Append inserts reg at the head and rewrites the file. The record stays in
// memory even when the write fails.
func (s *FileStore) Append(_ context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append([]models.Registration{*reg}, s.records...)
	if err := s.save(); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// List returns a copy of all records, most recent first.
func (s *FileStore) List(_ context.Context) ([]models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Registration, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// save must be called with s.mu held.
func (s *FileStore) save() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", s.lock.Path(), err)
	}
	defer func() { _ = s.lock.Unlock() }()

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
