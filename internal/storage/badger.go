package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/swanjin/go2/pkg/models"
)

// BadgerStorage keeps samples in an embedded BadgerDB
type BadgerStorage struct {
	db *badger.DB
}

// OpenBadgerStorage opens (or creates) a database in dir
func OpenBadgerStorage(dir string) (*BadgerStorage, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", dir, err)
	}
	return NewBadgerStorage(db), nil
}

// NewBadgerStorage wraps an already opened database
func NewBadgerStorage(db *badger.DB) *BadgerStorage {
	return &BadgerStorage{db: db}
}

// topicPrefix length-prefixes the topic so that no topic's prefix is a
// prefix of another's: "sample:{len(topic)}:{topic}:".
func topicPrefix(topic string) []byte {
	return []byte(fmt.Sprintf("sample:%d:%s:", len(topic), topic))
}

// sampleKey orders samples of a topic chronologically:
// "{topic prefix}{unix nanos, 19-digit padded}:{id}".
func sampleKey(sample *models.Sample) []byte {
	return append(topicPrefix(sample.Metadata.Topic),
		fmt.Sprintf("%019d:%s", sample.Timestamp.UnixNano(), sample.ID)...)
}

func idKey(id string) []byte {
	return []byte("id:" + id)
}

// SaveSample stores the sample and an id index entry pointing at it
func (b *BadgerStorage) SaveSample(sample *models.Sample) error {
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}
	if err := sample.Validate(); err != nil {
		return fmt.Errorf("invalid sample: %w", err)
	}

	data, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}

	key := sampleKey(sample)
	return b.db.Update(func(txn *badger.Txn) error {
		// A redelivered id replaces the sample saved before it
		item, err := txn.Get(idKey(sample.ID))
		switch {
		case err == nil:
			old, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if !bytes.Equal(old, key) {
				if err := txn.Delete(old); err != nil {
					return err
				}
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(idKey(sample.ID), key)
	})
}

// GetSample resolves the id index, then loads the sample
func (b *BadgerStorage) GetSample(id string) (*models.Sample, error) {
	if err := models.ValidateID(id); err != nil {
		return nil, fmt.Errorf("invalid sample id %q: %w", id, err)
	}
	var sample models.Sample
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(idKey(id))
		if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err = txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sample)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sample %s: %w", id, err)
	}
	return &sample, nil
}

// ListSamples walks the topic prefix backwards so the newest samples come first
func (b *BadgerStorage) ListSamples(topic string, limit int) ([]*models.Sample, error) {
	prefix := topicPrefix(topic)
	seek := append(append([]byte{}, prefix...), 0xff)

	samples := []*models.Sample{}
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			var sample models.Sample
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &sample)
			})
			if err != nil {
				return err
			}
			samples = append(samples, &sample)
			if limit > 0 && len(samples) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list samples of %s: %w", topic, err)
	}
	return samples, nil
}

// Close closes the database
func (b *BadgerStorage) Close() error {
	return b.db.Close()
}
