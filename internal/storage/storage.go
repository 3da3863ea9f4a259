// Package storage persists JSON documents (dataset snapshots and reports) on
// local disk or S3, and goals in DynamoDB.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ignite/influencer-analytics/internal/config"
	"github.com/ignite/influencer-analytics/internal/domain"
)

// ErrNotFound is returned when a document key does not exist.
var ErrNotFound = errors.New("document not found")

// DocumentStore stores opaque documents by key. Keys use forward slashes.
type DocumentStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns keys under prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// New creates the document store selected by cfg.Type ("local" or "s3").
func New(ctx context.Context, cfg config.StorageConfig) (DocumentStore, error) {
	switch cfg.Type {
	case "s3":
		awsCfg, err := LoadAWSConfig(ctx, cfg.AWSRegion, cfg.GetAWSProfile())
		if err != nil {
			return nil, err
		}
		return NewS3Store(newS3Client(awsCfg), cfg.S3Bucket, cfg.S3Prefix), nil
	case "local", "":
		return NewLocalStore(cfg.LocalPath)
	}
	return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
}

// LocalStore keeps documents as files under a root directory.
type LocalStore struct {
	root string
	mu   sync.RWMutex
}

// NewLocalStore creates root if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func (s *LocalStore) Put(_ context.Context, key string, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", key, err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return os.Rename(tmp, p)
}

func (s *LocalStore) Get(_ context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	err := filepath.WalkDir(s.root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || strings.HasSuffix(p, ".tmp") {
			return err
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// SaveJSON marshals v with indentation and stores it under key.
func SaveJSON(ctx context.Context, store DocumentStore, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}
	return store.Put(ctx, key, data)
}

// LoadJSON reads key and unmarshals it into v.
func LoadJSON(ctx context.Context, store DocumentStore, key string, v any) error {
	data, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

// LoadDataset reads an export document and returns its dataset and settings.
func LoadDataset(ctx context.Context, store DocumentStore, key string) (*domain.Dataset, map[string]string, error) {
	var doc domain.ExportDocument
	if err := LoadJSON(ctx, store, key, &doc); err != nil {
		return nil, nil, err
	}
	return doc.Dataset(), doc.Settings, nil
}

// SaveDataset writes ds as an export document.
func SaveDataset(ctx context.Context, store DocumentStore, key string, ds *domain.Dataset, settings map[string]string) error {
	return SaveJSON(ctx, store, key, domain.NewExportDocument(ds, settings))
}
