// Package storage persists subscriber preference records using BuntDB.
// Durability contract is last write wins; the pipeline keeps no other
// state here.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/floompnews/floompnews/core"
	"github.com/tidwall/buntdb"
)

const (
	subscriberPrefix = "subscriber:"

	// updatedIndex orders subscribers by the time of their last
	// preference change or delivery.
	updatedIndex = "updated_at"
)

// BuntStore implements core.SubscriberStorage on BuntDB.
type BuntStore struct {
	db *buntdb.DB
}

// NewFromMemory creates an in-memory store, used in tests and dry runs.
func NewFromMemory() (*BuntStore, error) {
	return NewBuntStore(":memory:")
}

// NewFromFile creates a file-backed store.
func NewFromFile(file string) (*BuntStore, error) {
	return NewBuntStore(file)
}

// NewBuntStore opens the database and creates the indexes.
func NewBuntStore(sourceFile string) (*BuntStore, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	if err := db.SetConfig(buntdb.Config{
		SyncPolicy: buntdb.EverySecond,
	}); err != nil {
		return nil, fmt.Errorf("failed to configure buntdb: %w", err)
	}

	if err := db.CreateIndex(updatedIndex, subscriberPrefix+"*",
		buntdb.IndexJSON("updated_at")); err != nil && !errors.Is(err, buntdb.ErrIndexExists) {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &BuntStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BuntStore) Close() error {
	return s.db.Close()
}

// Get implements core.SubscriberStorage.
func (s *BuntStore) Get(chatID int64) (*core.Subscriber, error) {
	var subscriber core.Subscriber

	err := s.db.View(func(tx *buntdb.Tx) error {
		value, err := tx.Get(subscriberKey(chatID))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(value), &subscriber)
	})

	if errors.Is(err, buntdb.ErrNotFound) {
		return nil, core.ErrSubscriberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriber %d: %w", chatID, err)
	}
	return &subscriber, nil
}

// Put implements core.SubscriberStorage, stamping UpdatedAt.
func (s *BuntStore) Put(subscriber *core.Subscriber) error {
	subscriber.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(subscriber)
	if err != nil {
		return fmt.Errorf("failed to encode subscriber %d: %w", subscriber.ChatID, err)
	}

	return s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(subscriberKey(subscriber.ChatID), string(payload), nil)
		return err
	})
}

// All implements core.SubscriberStorage, ordered by last update.
func (s *BuntStore) All() ([]*core.Subscriber, error) {
	var subscribers []*core.Subscriber

	err := s.db.View(func(tx *buntdb.Tx) error {
		var innerErr error
		iterErr := tx.Ascend(updatedIndex, func(_, value string) bool {
			var subscriber core.Subscriber
			if innerErr = json.Unmarshal([]byte(value), &subscriber); innerErr != nil {
				return false
			}
			subscribers = append(subscribers, &subscriber)
			return true
		})
		if innerErr != nil {
			return innerErr
		}
		return iterErr
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	return subscribers, nil
}

func subscriberKey(chatID int64) string {
	return subscriberPrefix + strconv.FormatInt(chatID, 10)
}
