// Package snapshot gives loomctl optional save/resume support for a CLI
// demo run, backed by an embedded bbolt database. This sits entirely
// outside the ECS core: the core has no file format of its own, the same
// way specs's own save/load story lives in a separate crate, not in
// specs itself.
package snapshot

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var bucketComponents = []byte("components")

// Store is a single bbolt-backed file holding one bucket per component
// type, each entry keyed by the component's owning entity index.
type Store struct {
	db *bolt.DB
}

// Open creates or opens the snapshot database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketComponents)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("snapshot: init %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func componentKey(component string, index uint32) []byte {
	return []byte(fmt.Sprintf("%s/%d", component, index))
}

// SaveComponents writes values, keyed by component name and entity index,
// as one JSON-marshaled entry per index. A later Open+LoadComponents pair
// restores exactly this map.
func SaveComponents[T any](s *Store, component string, values map[uint32]T) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketComponents)
		for idx, v := range values {
			data, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("snapshot: marshal %s[%d]: %w", component, idx, err)
			}
			if err := b.Put(componentKey(component, idx), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadComponents reads back every entry previously saved under component,
// keyed by entity index.
func LoadComponents[T any](s *Store, component string) (map[uint32]T, error) {
	out := make(map[uint32]T)
	prefix := []byte(component + "/")
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketComponents).Cursor()
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			var idx uint32
			if _, err := fmt.Sscanf(string(k), component+"/%d", &idx); err != nil {
				return fmt.Errorf("snapshot: parse key %q: %w", k, err)
			}
			var val T
			if err := json.Unmarshal(v, &val); err != nil {
				return fmt.Errorf("snapshot: unmarshal %s: %w", k, err)
			}
			out[idx] = val
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}
