package services

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/MegaGrindStone/portfolio-assistant/internal/models"
	bolt "go.etcd.io/bbolt"
)

// BoltDB implements the contact inbox on top of a BoltDB file. Every contact form submission is recorded
// here together with the outcome of delivering it.
type BoltDB struct {
	db *bolt.DB
}

var contactsBucket = []byte("contacts")

// NewBoltDB opens (or creates, with 0600 permissions) the inbox at path and makes sure its bucket exists.
// The file is locked while open; NewBoltDB gives up after a second if another process holds it.
func NewBoltDB(path string) (BoltDB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return BoltDB{}, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(contactsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return BoltDB{}, fmt.Errorf("failed to create contacts bucket: %w", err)
	}

	return BoltDB{db: db}, nil
}

// Close closes the underlying database file.
func (b BoltDB) Close() error {
	return b.db.Close()
}

// Submissions returns every recorded submission, newest first.
func (b BoltDB) Submissions(context.Context) ([]models.ContactSubmission, error) {
	var subs []models.ContactSubmission
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(contactsBucket).ForEach(func(_, v []byte) error {
			var sub models.ContactSubmission
			if err := json.Unmarshal(v, &sub); err != nil {
				return fmt.Errorf("failed to unmarshal submission: %w", err)
			}
			subs = append(subs, sub)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	slices.Reverse(subs)
	return subs, nil
}

// AddSubmission stores a new submission. The stored ID is the bucket's next sequence number, zero padded
// so that keys sort in insertion order, joined with the submission's own ID. The new ID is returned.
func (b BoltDB) AddSubmission(_ context.Context, sub models.ContactSubmission) (string, error) {
	var newID string
	err := b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(contactsBucket)

		seq, err := bk.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to get next sequence: %w", err)
		}
		newID = fmt.Sprintf("%020d-%s", seq, sub.ID)
		sub.ID = newID

		v, err := json.Marshal(sub)
		if err != nil {
			return fmt.Errorf("failed to marshal submission: %w", err)
		}

		return bk.Put([]byte(newID), v)
	})

	return newID, err
}

// UpdateSubmission overwrites an existing submission. Unknown IDs are ignored.
func (b BoltDB) UpdateSubmission(_ context.Context, sub models.ContactSubmission) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(contactsBucket)
		if bk.Get([]byte(sub.ID)) == nil {
			return nil
		}

		v, err := json.Marshal(sub)
		if err != nil {
			return fmt.Errorf("failed to marshal submission: %w", err)
		}

		return bk.Put([]byte(sub.ID), v)
	})
}
