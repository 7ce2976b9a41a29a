//go:generate go run go.uber.org/mock/mockgen -source=storage.go -destination=mocks/mock_repository.go -package=mocks
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/swanjin/go2/internal/config"
	"github.com/swanjin/go2/pkg/models"
)

// ErrNotFound is returned when no sample has the requested id
var ErrNotFound = errors.New("sample not found")

// Repository defines the storage interface for received samples
type Repository interface {
	SaveSample(sample *models.Sample) error
	GetSample(id string) (*models.Sample, error)
	// ListSamples returns the most recent samples of a topic, newest first
	ListSamples(topic string, limit int) ([]*models.Sample, error)
	Close() error
}

// NewStorage creates a repository based on the configuration
func NewStorage(cfg config.StorageConfig) (Repository, error) {
	switch cfg.Type {
	case config.StorageFile:
		return NewFileStorage(cfg.FilePath), nil
	case config.StorageBadger:
		return OpenBadgerStorage(cfg.BadgerPath)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// FileStorage keeps one JSON document per sample
type FileStorage struct {
	basePath string
}

// NewFileStorage stores samples under basePath
func NewFileStorage(basePath string) *FileStorage {
	return &FileStorage{basePath: basePath}
}

func (f *FileStorage) path(id string) string {
	return filepath.Join(f.basePath, fmt.Sprintf("%s.json", id))
}

// SaveSample writes a sample to <basePath>/<id>.json
func (f *FileStorage) SaveSample(sample *models.Sample) error {
	if err := sample.Validate(); err != nil {
		return fmt.Errorf("invalid sample: %w", err)
	}
	if err := os.MkdirAll(f.basePath, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}

	data, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}

	if err := os.WriteFile(f.path(sample.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write sample to file: %w", err)
	}

	return nil
}

// GetSample reads a sample back from its file
func (f *FileStorage) GetSample(id string) (*models.Sample, error) {
	if err := models.ValidateID(id); err != nil {
		return nil, fmt.Errorf("invalid sample id %q: %w", id, err)
	}
	data, err := os.ReadFile(f.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read sample file: %w", err)
	}

	var sample models.Sample
	if err := json.Unmarshal(data, &sample); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sample: %w", err)
	}

	return &sample, nil
}

// ListSamples scans every file in the directory
func (f *FileStorage) ListSamples(topic string, limit int) ([]*models.Sample, error) {
	entries, err := os.ReadDir(f.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.Sample{}, nil
		}
		return nil, fmt.Errorf("failed to list storage directory: %w", err)
	}

	var samples []*models.Sample
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		sample, err := f.GetSample(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}

	samples = lo.Filter(samples, func(s *models.Sample, _ int) bool {
		return s.Metadata.Topic == topic
	})
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.After(samples[j].Timestamp)
	})
	if limit > 0 && len(samples) > limit {
		samples = samples[:limit]
	}

	return samples, nil
}

// Close is a no-op for file storage
func (f *FileStorage) Close() error {
	return nil
}
