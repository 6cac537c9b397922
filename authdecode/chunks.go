//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package authdecode

import (
	"fmt"
	"math/big"

	"github.com/maceip/tlsn-authdecode-wasm/encodings"
)

// NumChunks returns the number of chunkSize byte chunks covering
// length bytes.
func NumChunks(length, chunkSize int) int {
	return (length + chunkSize - 1) / chunkSize
}

// Chunk returns the chunk idx of the plaintext zero padded to
// chunkSize bytes.
func Chunk(plaintext []byte, chunkSize, idx int) []byte {
	result := make([]byte, chunkSize)
	start := idx * chunkSize
	if start < len(plaintext) {
		copy(result, plaintext[start:])
	}
	return result
}

// ChunkBits returns the bit positions [from:to) of the chunk idx in
// a plaintext of numBits bits.
func ChunkBits(numBits, chunkSize, idx int) (from, to int) {
	from = idx * chunkSize * 8
	to = from + chunkSize*8
	if to > numBits {
		to = numBits
	}
	return
}

// PublicInputs derives the public inputs of the commitment's chunks
// from the full encodings.
func PublicInputs(c Commitment, full *encodings.FullEncodings,
	chunkSize int) ([]PublicInput, error) {

	if err := c.Validate(chunkSize); err != nil {
		return nil, err
	}
	if full.Len() != c.PlaintextLength*8 {
		return nil, fmt.Errorf("%w: %d encodings for %d plaintext bytes",
			ErrInputShape, full.Len(), c.PlaintextLength)
	}
	result := make([]PublicInput, len(c.Chunks))
	for idx, chunk := range c.Chunks {
		from, to := ChunkBits(full.Len(), chunkSize, idx)
		part, err := full.Slice(from, to)
		if err != nil {
			return nil, err
		}
		deltas := part.Deltas()
		for len(deltas) < chunkSize*8 {
			deltas = append(deltas, new(big.Int))
		}
		result[idx] = PublicInput{
			PlaintextDigest:   chunk.PlaintextDigest,
			EncodingSumDigest: chunk.EncodingSumDigest,
			ZeroSum:           part.ZeroSum(),
			Deltas:            deltas,
		}
	}
	return result, nil
}

// Relation computes the encoding sum zeroSum + Σ bit_i · delta_i of
// the zero padded plaintext chunk. The chunk must cover all deltas.
func Relation(pub PublicInput, chunk []byte) (*big.Int, error) {
	bits := encodings.BytesToBits(chunk)
	if len(bits) != len(pub.Deltas) {
		return nil, fmt.Errorf("%w: %d bits, %d deltas", ErrInputShape,
			len(bits), len(pub.Deltas))
	}
	sum := new(big.Int).Set(pub.ZeroSum)
	for i, bit := range bits {
		if bit {
			sum.Add(sum, pub.Deltas[i])
		}
	}
	return sum, nil
}
