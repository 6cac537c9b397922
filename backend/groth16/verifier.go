//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package groth16

import (
	"bytes"
	"context"
	"fmt"
	"runtime"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/maceip/tlsn-authdecode-wasm/authdecode"
	"golang.org/x/sync/errgroup"
)

var (
	_ authdecode.VerifierBackend = &Verifier{}
)

// Verifier implements authdecode.VerifierBackend.
type Verifier struct {
	key *VerificationKey
}

// NewVerifier creates a new verifier backend with the verification
// key.
func NewVerifier(key *VerificationKey) *Verifier {
	return &Verifier{
		key: key,
	}
}

// ChunkSize implements authdecode.VerifierBackend.ChunkSize.
func (v *Verifier) ChunkSize() int {
	return v.key.chunkSize
}

// Verify implements authdecode.VerifierBackend.Verify. The chunks are
// verified in parallel.
func (v *Verifier) Verify(ctx context.Context,
	inputs []authdecode.PublicInput, proofs []authdecode.Proof) error {

	if len(inputs) != len(proofs) {
		return fmt.Errorf("%w: %d inputs, %d proofs",
			authdecode.ErrInputShape, len(inputs), len(proofs))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for idx := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := v.verify(&inputs[idx], proofs[idx]); err != nil {
				return fmt.Errorf("%w: chunk %d: %v",
					authdecode.ErrVerificationRejected, idx, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (v *Verifier) verify(input *authdecode.PublicInput,
	data authdecode.Proof) error {

	assignment, err := publicAssignment(v.key.chunkSize, input)
	if err != nil {
		return err
	}
	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField(),
		frontend.PublicOnly())
	if err != nil {
		return err
	}
	proof := groth16.NewProof(ecc.BN254)
	r := bytes.NewReader(data)
	if _, err := proof.ReadFrom(r); err != nil {
		return err
	}
	if r.Len() != 0 {
		return fmt.Errorf("trailing data in proof")
	}
	return groth16.Verify(proof, v.key.vk, witness)
}
