//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package prover

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/maceip/tlsn-authdecode-wasm/authdecode"
	"github.com/maceip/tlsn-authdecode-wasm/encodings"
)

// EncodingVerifier confirms that the full encodings the Verifier
// claims to hold are authentic. Check calls Init once with the agreed
// InitData and then Verify for the full encodings of every batch
// entry, in batch order.
type EncodingVerifier interface {
	Init(initData authdecode.InitData)
	Verify(full *encodings.FullEncodings) error
}

// AcceptAll is an EncodingVerifier that accepts all full encodings.
// It provides no authentication and is meant for tests.
type AcceptAll struct{}

// Init implements EncodingVerifier.Init.
func (AcceptAll) Init(initData authdecode.InitData) {}

// Verify implements EncodingVerifier.Verify.
func (AcceptAll) Verify(full *encodings.FullEncodings) error {
	return nil
}

// ErrDigestMismatch is returned by DigestVerifier for full encodings
// that do not match their pinned digest.
var ErrDigestMismatch = errors.New("prover: full encodings digest mismatch")

// PinDigest computes the digest that binds the full encodings to the
// InitData. The party authenticating the full encodings publishes the
// pins out of band.
func PinDigest(initData authdecode.InitData,
	full *encodings.FullEncodings) [sha256.Size]byte {

	d := full.Digest()

	h := sha256.New()
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], uint64(len(initData)))
	h.Write(tmp[:n])
	h.Write(initData)
	h.Write(d[:])

	var result [sha256.Size]byte
	copy(result[:], h.Sum(nil))
	return result
}

// DigestVerifier accepts full encodings whose PinDigest matches the
// pinned digest of their batch position.
type DigestVerifier struct {
	pins     [][sha256.Size]byte
	initData authdecode.InitData
	next     int
}

// NewDigestVerifier creates a verifier for the pinned digests of the
// batch entries.
func NewDigestVerifier(pins ...[sha256.Size]byte) *DigestVerifier {
	return &DigestVerifier{
		pins: pins,
	}
}

// Init implements EncodingVerifier.Init.
func (v *DigestVerifier) Init(initData authdecode.InitData) {
	v.initData = append(authdecode.InitData(nil), initData...)
	v.next = 0
}

// Verify implements EncodingVerifier.Verify.
func (v *DigestVerifier) Verify(full *encodings.FullEncodings) error {
	idx := v.next
	v.next++
	if idx >= len(v.pins) {
		return fmt.Errorf("%w: no pin for entry %d", ErrDigestMismatch, idx)
	}
	if PinDigest(v.initData, full) != v.pins[idx] {
		return ErrDigestMismatch
	}
	return nil
}
