// Package cache persists the assembled model.Graph to disk via BadgerDB.
// Unlike the teacher's internal/graph/embedded store, which keys every
// node and edge individually for incremental updates across branches, the
// graph here is a frozen one-shot snapshot produced fresh each run, so the
// whole graph round-trips as a single serialized blob under one key —
// the spec's only contract for the cache is round-trip equivalence.
package cache

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/stitchlint/stitchlint/internal/model"
)

const (
	snapshotKey    = "stitchlint:graph:snapshot"
	fingerprintKey = "stitchlint:graph:fingerprint"
)

// Cache wraps a BadgerDB handle opened at a single directory.
type Cache struct {
	db *badger.DB
}

// Open opens (or creates) the on-disk cache at dir.
func Open(dir string) (*Cache, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache at %s: %w", dir, err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Store serializes graph and writes it under the single snapshot key
// alongside fingerprint, overwriting any prior run's cache. model.Graph's
// unexported edge index is excluded automatically by encoding/json; Load
// rebuilds it. fingerprint identifies the source tree state the graph was
// built from (see pipeline.Fingerprint), so a later Load can tell whether
// the cached graph is still current.
func (c *Cache) Store(graph *model.Graph, fingerprint string) error {
	data, err := json.Marshal(graph)
	if err != nil {
		return fmt.Errorf("marshal graph snapshot: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(snapshotKey), data); err != nil {
			return err
		}
		return txn.Set([]byte(fingerprintKey), []byte(fingerprint))
	})
}

// Load reads back the most recently stored graph, but only if its stored
// fingerprint matches wantFingerprint. ok is false if the cache is empty,
// unreadable, or stale relative to wantFingerprint, in which case the
// caller should rebuild the graph and Store it again.
func (c *Cache) Load(wantFingerprint string) (graph *model.Graph, ok bool, err error) {
	var data, storedFingerprint []byte
	err = c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(snapshotKey))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			data = append([]byte(nil), val...)
			return nil
		}); err != nil {
			return err
		}

		fpItem, err := txn.Get([]byte(fingerprintKey))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return fpItem.Value(func(val []byte) error {
			storedFingerprint = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, false, fmt.Errorf("read graph snapshot: %w", err)
	}
	if data == nil || string(storedFingerprint) != wantFingerprint {
		return nil, false, nil
	}

	g := model.NewGraph()
	if err := json.Unmarshal(data, g); err != nil {
		return nil, false, fmt.Errorf("unmarshal graph snapshot: %w", err)
	}
	g.BuildEdgeIndex()
	return g, true, nil
}
