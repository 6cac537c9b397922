//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Package prg implements a deterministic pseudorandom byte stream. The
// stream is the ChaCha20 keystream of the seed and it must only be
// used for reproducible test vectors and demonstrations.
package prg

import (
	"io"

	"golang.org/x/crypto/chacha20"
)

var (
	_ io.Reader = &Reader{}
)

// Seed defines the PRG seed.
type Seed [chacha20.KeySize]byte

// Reader implements io.Reader returning the keystream of the seed.
type Reader struct {
	cipher *chacha20.Cipher
}

// New creates a new deterministic reader for the seed.
func New(seed Seed) *Reader {
	var nonce [chacha20.NonceSize]byte
	cipher, err := chacha20.NewUnauthenticatedCipher(seed[:], nonce[:])
	if err != nil {
		panic(err)
	}
	return &Reader{
		cipher: cipher,
	}
}

// Read fills p with the next keystream bytes. It never fails.
func (r *Reader) Read(p []byte) (int, error) {
	clear(p)
	r.cipher.XORKeyStream(p, p)
	return len(p), nil
}
