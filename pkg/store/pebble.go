// Package store keeps an on-disk cache of generated and upstream response
// payloads in a Pebble database. Entries carry a TTL; expired entries are
// misses and are removed by the retention sweeper.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"

	"worldmonitor/pkg/logger"
)

var (
	db     *pebble.DB
	dbPath string
)

const keyPrefix = "resp|"

// envelope wraps a cached payload with its expiry metadata.
type envelope struct {
	StoredAt int64  `json:"stored_at"` // unix nanos
	TTL      int64  `json:"ttl"`       // nanos; 0 means no expiry
	Payload  []byte `json:"payload"`
}

// Open opens (or creates) the cache database at the given path and keeps a
// global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_cache_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("cache_open_failed", "path", path, "error", err)
		return err
	}
	dbPath = path
	return nil
}

// Close closes the opened cache DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	dbPath = ""
	return nil
}

// Ready reports whether the cache is opened and usable.
func Ready() bool {
	return db != nil
}

// SaveResponse stores a payload under key with the given TTL.
func SaveResponse(key string, payload []byte, ttl time.Duration) error {
	if db == nil {
		return fmt.Errorf("cache not opened")
	}
	env := envelope{StoredAt: time.Now().UTC().UnixNano(), TTL: int64(ttl), Payload: payload}
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return db.Set([]byte(keyPrefix+key), b, pebble.Sync)
}

// GetResponse returns the cached payload for key. Expired and absent
// entries are both reported as a miss.
func GetResponse(key string) ([]byte, bool, error) {
	if db == nil {
		return nil, false, fmt.Errorf("cache not opened")
	}
	v, closer, err := db.Get([]byte(keyPrefix + key))
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()
	var env envelope
	if err := json.Unmarshal(v, &env); err != nil {
		// unparsable entry; drop it
		_ = db.Delete([]byte(keyPrefix+key), pebble.NoSync)
		return nil, false, nil
	}
	if expired(env, time.Now().UTC().UnixNano()) {
		return nil, false, nil
	}
	out := append([]byte(nil), env.Payload...)
	return out, true, nil
}

// DeleteResponse removes a cached entry.
func DeleteResponse(key string) error {
	if db == nil {
		return fmt.Errorf("cache not opened")
	}
	return db.Delete([]byte(keyPrefix+key), pebble.Sync)
}

// SweepExpired deletes expired entries in batches, sleeping between batches
// to keep the sweep off the request path. Returns the number of entries
// deleted.
func SweepExpired(batchSize int, batchSleep time.Duration) (int, error) {
	if db == nil {
		return 0, fmt.Errorf("cache not opened")
	}
	if batchSize <= 0 {
		batchSize = 256
	}
	now := time.Now().UTC().UnixNano()

	iter, err := db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "\xff"),
	})
	if err != nil {
		return 0, err
	}
	var stale [][]byte
	for iter.First(); iter.Valid(); iter.Next() {
		var env envelope
		if err := json.Unmarshal(iter.Value(), &env); err != nil || expired(env, now) {
			stale = append(stale, append([]byte(nil), iter.Key()...))
		}
	}
	if err := iter.Close(); err != nil {
		return 0, err
	}

	deleted := 0
	for i, k := range stale {
		if err := db.Delete(k, pebble.NoSync); err != nil {
			return deleted, err
		}
		deleted++
		if batchSleep > 0 && (i+1)%batchSize == 0 {
			time.Sleep(batchSleep)
		}
	}
	if deleted > 0 {
		logger.Info("cache_sweep", "deleted", deleted)
	}
	return deleted, nil
}

func expired(env envelope, now int64) bool {
	return env.TTL > 0 && now > env.StoredAt+env.TTL
}
