package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger"
)

const (
	permissionKey = "permission"
	noticePrefix  = "notice:"
)

var (
	// ErrMalformedSnapshot occurs when a stored value cannot be decoded
	ErrMalformedSnapshot = errors.New("malformed snapshot")
)

// Badger db implementation
type Badger struct {
	db       *badger.DB
	cancelGC func()
	wg       sync.WaitGroup
}

// NewBadger creates a new badger instance for the given path
func NewBadger(dbPath string) (*Badger, error) {
	db, err := badger.Open(badger.DefaultOptions(dbPath).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db at path %s: %w", dbPath, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	b := &Badger{
		db:       db,
		cancelGC: cancel,
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				for b.db.RunValueLogGC(0.5) == nil && ctx.Err() == nil {
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return b, nil
}

// Close the database
func (b *Badger) Close() error {
	b.cancelGC()
	b.wg.Wait()

	return b.db.Close()
}

// SaveMedications replaces the medication snapshot
func (b *Badger) SaveMedications(medications []Medication) error {
	return b.db.Update(func(tx *badger.Txn) error {
		data, err := json.Marshal(medications)
		if err != nil {
			return fmt.Errorf("failed to JSON marshal medications: %w", err)
		}

		return tx.Set([]byte(medicationsKey), data)
	})
}

// LoadMedications snapshot, nil when nothing was saved yet
func (b *Badger) LoadMedications() (medications []Medication, err error) {
	err = b.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(medicationsKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("failed to get medications snapshot: %w", err)
		}

		return item.Value(func(val []byte) error {
			err := json.Unmarshal(val, &medications)
			if err != nil {
				return fmt.Errorf("failed to unmarshal medications snapshot: %v: %w", err, ErrMalformedSnapshot)
			}

			return nil
		})
	})

	return
}

// SaveDay stores the checklist for a single date
func (b *Badger) SaveDay(date string, tasks []DailyTask) error {
	day := &Day{Date: date, Tasks: tasks}

	return b.db.Update(func(tx *badger.Txn) error {
		data, err := json.Marshal(day)
		if err != nil {
			return fmt.Errorf("failed to JSON marshal day %s: %w", date, err)
		}

		return tx.Set(day.badgerKey(), data)
	})
}

// LoadAdherence returns every stored checklist keyed by date. Malformed days are
// skipped and their keys reported back to the caller.
func (b *Badger) LoadAdherence() (days map[string][]DailyTask, skipped []string, err error) {
	days = make(map[string][]DailyTask)

	err = b.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(adherencePrefix)

		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.KeyCopy(nil))

			err := item.Value(func(val []byte) error {
				day := &Day{}
				if err := json.Unmarshal(val, day); err != nil || day.Date == "" {
					skipped = append(skipped, key)
					return nil
				}

				days[day.Date] = day.Tasks

				return nil
			})

			if err != nil {
				return fmt.Errorf("failed to read adherence value for key %s: %w", key, err)
			}
		}

		return nil
	})

	return
}

// Permission for alerts, empty when never asked
func (b *Badger) Permission() (permission string, err error) {
	err = b.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(permissionKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("failed to get permission: %w", err)
		}

		return item.Value(func(val []byte) error {
			permission = string(val)
			return nil
		})
	})

	return
}

// SetPermission for alerts
func (b *Badger) SetPermission(permission string) error {
	return b.db.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte(permissionKey), []byte(permission))
	})
}

// NoticeSeen reports whether a notice key was recorded and has not expired yet
func (b *Badger) NoticeSeen(key string) (seen bool, err error) {
	err = b.db.View(func(tx *badger.Txn) error {
		_, err := tx.Get(append([]byte(noticePrefix), []byte(key)...))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("failed to get notice %s: %w", key, err)
		}

		seen = true

		return nil
	})

	return
}

// MarkNotice records a notice key that expires after ttl
func (b *Badger) MarkNotice(key string, ttl time.Duration) error {
	return b.db.Update(func(tx *badger.Txn) error {
		entry := badger.NewEntry(append([]byte(noticePrefix), []byte(key)...), []byte(time.Now().Format(time.RFC3339))).WithTTL(ttl)

		return tx.SetEntry(entry)
	})
}
