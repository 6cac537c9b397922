//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package authdecode

import (
	"context"
	"io"
	"math/big"
)

// PublicInput holds the public values of one chunk. Both roles derive
// the values independently from the commitment and the full
// encodings.
type PublicInput struct {
	PlaintextDigest   []byte
	EncodingSumDigest []byte

	// ZeroSum is the sum of the bit value 0 encodings of the chunk.
	ZeroSum *big.Int

	// Deltas hold the differences of the bit value 1 and 0 encodings
	// of the chunk bits. The deltas of the padding bits are zero.
	Deltas []*big.Int
}

// ProofInput holds the public and private values of one chunk proof.
type ProofInput struct {
	Public PublicInput

	// Plaintext is the chunk data zero padded to the chunk size.
	Plaintext       []byte
	PlaintextSalt   []byte
	EncodingSum     *big.Int
	EncodingSumSalt []byte
}

// ProverBackend implements the Prover side of a proof system.
type ProverBackend interface {
	// ChunkSize returns the number of plaintext bytes covered by one
	// proof.
	ChunkSize() int

	// CommitPlaintext commits to the zero padded plaintext chunk.
	CommitPlaintext(rand io.Reader, chunk []byte) (digest, salt []byte,
		err error)

	// CommitEncodingSum commits to the sum of the active encodings of
	// a chunk.
	CommitEncodingSum(rand io.Reader, sum *big.Int) (digest, salt []byte,
		err error)

	// Prove creates one proof for each input. Prove fails if the
	// relation of any input does not hold.
	Prove(ctx context.Context, inputs []ProofInput) ([]Proof, error)
}

// VerifierBackend implements the Verifier side of a proof system.
type VerifierBackend interface {
	// ChunkSize returns the number of plaintext bytes covered by one
	// proof.
	ChunkSize() int

	// Verify verifies the proofs against the public inputs. The
	// returned error wraps ErrVerificationRejected if any proof is
	// invalid.
	Verify(ctx context.Context, inputs []PublicInput, proofs []Proof) error
}
