package store

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	processedBucket = []byte("processed")
	mediaBucket     = []byte("media")
)

// Upload is a media id the provider holds that no sent message references yet.
type Upload struct {
	MediaID    string    `json:"media_id"`
	Category   string    `json:"category"`
	Recipient  string    `json:"recipient"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type Store interface {
	// MarkProcessed records a webhook message id and reports whether it was new.
	MarkProcessed(messageID string) (bool, error)
	PruneProcessed(olderThan time.Duration) (int, error)

	RecordUpload(u Upload) error
	ReleaseUpload(mediaID string) error
	Orphans(olderThan time.Duration) ([]Upload, error)

	Close() error
}

type BoltStore struct {
	db  *bolt.DB
	now func() time.Time
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(processedBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(mediaBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltStore{db: db, now: time.Now}, nil
}

func (s *BoltStore) MarkProcessed(messageID string) (bool, error) {
	fresh := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(processedBucket)
		if b.Get([]byte(messageID)) != nil {
			return nil
		}
		fresh = true
		ts, err := s.now().UTC().MarshalText()
		if err != nil {
			return err
		}
		return b.Put([]byte(messageID), ts)
	})
	return fresh, err
}

func (s *BoltStore) PruneProcessed(olderThan time.Duration) (int, error) {
	cutoff := s.now().Add(-olderThan)
	pruned := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(processedBucket)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var seen time.Time
			if err := seen.UnmarshalText(v); err != nil || seen.Before(cutoff) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		pruned = len(stale)
		return nil
	})
	return pruned, err
}

func (s *BoltStore) RecordUpload(u Upload) error {
	if u.UploadedAt.IsZero() {
		u.UploadedAt = s.now().UTC()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(u)
		if err != nil {
			return err
		}
		return tx.Bucket(mediaBucket).Put([]byte(u.MediaID), data)
	})
}

func (s *BoltStore) ReleaseUpload(mediaID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(mediaBucket).Delete([]byte(mediaID))
	})
}

// Orphans lists uploads recorded more than olderThan ago, oldest first by key order.
func (s *BoltStore) Orphans(olderThan time.Duration) ([]Upload, error) {
	cutoff := s.now().Add(-olderThan)
	var out []Upload
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(mediaBucket).ForEach(func(_, v []byte) error {
			var u Upload
			if err := json.Unmarshal(v, &u); err != nil {
				return err
			}
			if u.UploadedAt.Before(cutoff) {
				out = append(out, u)
			}
			return nil
		})
	})
	return out, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
