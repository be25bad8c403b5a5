// Package store connects to the data store that persists the timer state
// across restarts
package store

import (
	"context"
	"errors"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/velafocus/vela/internal/pathutil"
)

const timerBucket = "timer"

var errVelaRunning = errors.New(
	"is Vela already running? Only one instance can be active at a time",
)

// Client is a BoltDB database client.
type Client struct {
	*bolt.DB
}

// Get retrieves the values for the given keys from the timer bucket.
func (c *Client) Get(
	_ context.Context,
	keys ...string,
) (map[string][]byte, error) {
	values := make(map[string][]byte, len(keys))

	err := c.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(timerBucket))

		for _, k := range keys {
			v := b.Get([]byte(k))
			if v == nil {
				continue
			}

			// values are only valid for the life of the transaction
			values[k] = append([]byte(nil), v...)
		}

		return nil
	})

	return values, err
}

// Set writes or removes all the given keys in a single transaction.
func (c *Client) Set(_ context.Context, values map[string][]byte) error {
	return c.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(timerBucket))

		for k, v := range values {
			var err error
			if v == nil {
				err = b.Delete([]byte(k))
			} else {
				err = b.Put([]byte(k), v)
			}

			if err != nil {
				return err
			}
		}

		return nil
	})
}

// openDB creates or opens a database and locks it.
func openDB(pathToDB string) (*bolt.DB, error) {
	db, err := bolt.Open(
		pathToDB,
		pathutil.FilePermission,
		&bolt.Options{Timeout: 1 * time.Second},
	)
	if err != nil {
		// the file lock is held by another process
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, errVelaRunning
		}

		return nil, err
	}

	return db, nil
}

// NewClient returns a wrapper to a BoltDB connection.
func NewClient(dbPath string) (*Client, error) {
	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	// Create the necessary buckets for storing data if they do not exist already
	err = db.Update(func(tx *bolt.Tx) error {
		_, err = tx.CreateBucketIfNotExists([]byte(timerBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Client{
		db,
	}, nil
}
