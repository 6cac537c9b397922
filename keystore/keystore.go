//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Package keystore persists the proof system setup artifacts in a
// LevelDB database.
package keystore

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

const keyPrefix = "authdecode/"

// Store implements a key store.
type Store struct {
	db *leveldb.DB
}

// Open opens the store at the filesystem path. The store is created
// if it does not exist.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("keystore: open %s: %w", path, err)
	}
	return &Store{
		db: db,
	}, nil
}

// OpenMem opens a store that keeps its contents in memory.
func OpenMem() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("keystore: open memory store: %w", err)
	}
	return &Store{
		db: db,
	}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads the named artifact into r. It returns false if the store
// does not have the artifact.
func (s *Store) Load(name string, r io.ReaderFrom) (bool, error) {
	data, err := s.db.Get([]byte(keyPrefix+name), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("keystore: get %s: %w", name, err)
	}
	if _, err := r.ReadFrom(bytes.NewReader(data)); err != nil {
		return false, fmt.Errorf("keystore: decode %s: %w", name, err)
	}
	return true, nil
}

// Save stores the named artifact from w.
func (s *Store) Save(name string, w io.WriterTo) error {
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return fmt.Errorf("keystore: encode %s: %w", name, err)
	}
	if err := s.db.Put([]byte(keyPrefix+name), buf.Bytes(), nil); err != nil {
		return fmt.Errorf("keystore: put %s: %w", name, err)
	}
	return nil
}

// Delete removes the named artifact.
func (s *Store) Delete(name string) error {
	return s.db.Delete([]byte(keyPrefix+name), nil)
}
