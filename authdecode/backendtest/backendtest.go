//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Package backendtest implements helpers for testing AuthDecode proof
// backends.
package backendtest

import (
	"io"

	"github.com/maceip/tlsn-authdecode-wasm/authdecode"
	"github.com/maceip/tlsn-authdecode-wasm/encodings"
)

// Inputs creates random full encodings for the plaintext and commits
// to the plaintext with the backend. It returns the honest proof
// inputs of the plaintext chunks.
func Inputs(b authdecode.ProverBackend, rand io.Reader, plaintext []byte) (
	[]authdecode.ProofInput, error) {

	full, err := encodings.Random(rand, len(plaintext)*8)
	if err != nil {
		return nil, err
	}
	active, err := full.Encode(encodings.BytesToBits(plaintext))
	if err != nil {
		return nil, err
	}
	chunkSize := b.ChunkSize()
	c := authdecode.Commitment{
		PlaintextLength: len(plaintext),
	}
	var inputs []authdecode.ProofInput

	for idx := 0; idx < authdecode.NumChunks(len(plaintext), chunkSize); idx++ {
		chunk := authdecode.Chunk(plaintext, chunkSize, idx)
		from, to := authdecode.ChunkBits(active.Len(), chunkSize, idx)
		sum := active.Sum(from, to)

		pd, ps, err := b.CommitPlaintext(rand, chunk)
		if err != nil {
			return nil, err
		}
		sd, ss, err := b.CommitEncodingSum(rand, sum)
		if err != nil {
			return nil, err
		}
		c.Chunks = append(c.Chunks, authdecode.ChunkCommitment{
			PlaintextDigest:   pd,
			EncodingSumDigest: sd,
		})
		inputs = append(inputs, authdecode.ProofInput{
			Plaintext:       chunk,
			PlaintextSalt:   ps,
			EncodingSum:     sum,
			EncodingSumSalt: ss,
		})
	}
	pubs, err := authdecode.PublicInputs(c, full, chunkSize)
	if err != nil {
		return nil, err
	}
	for idx := range inputs {
		inputs[idx].Public = pubs[idx]
	}
	return inputs, nil
}

// Public returns the public inputs of the proof inputs.
func Public(inputs []authdecode.ProofInput) []authdecode.PublicInput {
	result := make([]authdecode.PublicInput, len(inputs))
	for idx, input := range inputs {
		result[idx] = input.Public
	}
	return result
}
