//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package authdecode

import (
	"fmt"

	"github.com/maceip/tlsn-authdecode-wasm/encodings"
)

// InitData is the opaque payload the roles agree on before the
// encoding check.
type InitData []byte

// ChunkCommitment holds the commitments of one plaintext chunk. The
// digests are opaque backend defined values.
type ChunkCommitment struct {
	PlaintextDigest   []byte
	EncodingSumDigest []byte
}

// Commitment commits to one plaintext and its active encodings.
type Commitment struct {
	PlaintextLength int
	Chunks          []ChunkCommitment
}

// Validate checks that the commitment fits plaintext length bytes
// split into chunks of chunkSize bytes.
func (c Commitment) Validate(chunkSize int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("%w: chunk size %d", ErrInputShape, chunkSize)
	}
	if c.PlaintextLength <= 0 {
		return fmt.Errorf("%w: plaintext length %d", ErrInputShape,
			c.PlaintextLength)
	}
	if len(c.Chunks) != NumChunks(c.PlaintextLength, chunkSize) {
		return fmt.Errorf("%w: %d chunks for %d bytes", ErrInputShape,
			len(c.Chunks), c.PlaintextLength)
	}
	for idx, chunk := range c.Chunks {
		if len(chunk.PlaintextDigest) == 0 ||
			len(chunk.EncodingSumDigest) == 0 {
			return fmt.Errorf("%w: empty digest in chunk %d", ErrInputShape,
				idx)
		}
	}
	return nil
}

// VerificationData is the Verifier's answer to the commitments: the
// full encodings of every batch entry, in the commit batch order, and
// the InitData.
type VerificationData struct {
	FullEncodings []*encodings.FullEncodings
	InitData      InitData
}

// Proof is an opaque backend defined proof of one chunk.
type Proof []byte

// ProofSet holds the proofs of one batch entry, one proof per chunk.
type ProofSet struct {
	Proofs []Proof
}
