//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package groth16

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

const (
	// ElementSize is the number of plaintext bytes packed into one
	// field element.
	ElementSize = 31

	elementBits = ElementSize * 8
)

// chunkCircuit proves the relation of one plaintext chunk: the
// plaintext and the encoding sum open their commitments and the
// encoding sum equals ZeroSum + Σ bit_i · Deltas_i.
type chunkCircuit struct {
	PlaintextDigest   frontend.Variable   `gnark:",public"`
	EncodingSumDigest frontend.Variable   `gnark:",public"`
	ZeroSum           frontend.Variable   `gnark:",public"`
	Deltas            []frontend.Variable `gnark:",public"`

	Plaintext       []frontend.Variable
	PlaintextSalt   frontend.Variable
	EncodingSumSalt frontend.Variable
}

// newCircuit allocates a circuit for chunks of chunkSize bytes.
func newCircuit(chunkSize int) *chunkCircuit {
	return &chunkCircuit{
		Deltas:    make([]frontend.Variable, chunkSize*8),
		Plaintext: make([]frontend.Variable, chunkSize/ElementSize),
	}
}

// Define implements frontend.Circuit.Define.
func (c *chunkCircuit) Define(api frontend.API) error {
	if len(c.Deltas) != len(c.Plaintext)*elementBits {
		return fmt.Errorf("groth16: %d deltas for %d plaintext elements",
			len(c.Deltas), len(c.Plaintext))
	}

	// The plaintext bits are most significant bit first and ToBinary
	// returns the least significant bit first.
	terms := make([]frontend.Variable, 0, len(c.Deltas))
	for i, elem := range c.Plaintext {
		bits := api.ToBinary(elem, elementBits)
		for k := 0; k < elementBits; k++ {
			terms = append(terms,
				api.Mul(bits[elementBits-1-k], c.Deltas[i*elementBits+k]))
		}
	}
	sum := api.Add(c.ZeroSum, terms[0], terms[1:]...)

	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	h.Write(c.PlaintextSalt)
	h.Write(c.Plaintext...)
	api.AssertIsEqual(h.Sum(), c.PlaintextDigest)

	h.Reset()
	h.Write(c.EncodingSumSalt, sum)
	api.AssertIsEqual(h.Sum(), c.EncodingSumDigest)

	return nil
}
