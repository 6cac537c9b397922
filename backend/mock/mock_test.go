//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package mock

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/maceip/tlsn-authdecode-wasm/authdecode"
	"github.com/maceip/tlsn-authdecode-wasm/authdecode/backendtest"
	"github.com/maceip/tlsn-authdecode-wasm/prg"
)

const testChunkSize = 8

func proofInputs(t *testing.T, b *Backend, plaintext []byte) []authdecode.ProofInput {
	inputs, err := backendtest.Inputs(b, prg.New(prg.Seed{5}), plaintext)
	if err != nil {
		t.Fatal(err)
	}
	return inputs
}

func newBackend(t *testing.T) *Backend {
	b, err := New(testChunkSize)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestComplete(t *testing.T) {
	b := newBackend(t)
	inputs := proofInputs(t, b, []byte("Hello, AuthDecode!"))
	if len(inputs) != 3 {
		t.Fatalf("got %d chunks, expected 3", len(inputs))
	}
	ctx := context.Background()
	proofs, err := b.Prove(ctx, inputs)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if err := b.Verify(ctx, backendtest.Public(inputs), proofs); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestProveFalseRelation(t *testing.T) {
	b := newBackend(t)
	inputs := proofInputs(t, b, []byte("plaintext"))
	inputs[1].EncodingSum = new(big.Int).Add(inputs[1].EncodingSum,
		big.NewInt(1))

	_, err := b.Prove(context.Background(), inputs)
	if !errors.Is(err, ErrRelation) {
		t.Fatalf("Prove=%v, expected ErrRelation", err)
	}
}

func TestVerifyRejects(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()

	tests := []func(inputs []authdecode.PublicInput, proofs []authdecode.Proof){
		func(inputs []authdecode.PublicInput, proofs []authdecode.Proof) {
			proofs[0][len(proofs[0])-1] ^= 1
		},
		func(inputs []authdecode.PublicInput, proofs []authdecode.Proof) {
			proofs[1] = proofs[1][:len(proofs[1])-1]
		},
		func(inputs []authdecode.PublicInput, proofs []authdecode.Proof) {
			inputs[0].ZeroSum = new(big.Int).Add(inputs[0].ZeroSum,
				big.NewInt(1))
		},
		func(inputs []authdecode.PublicInput, proofs []authdecode.Proof) {
			inputs[0], inputs[1] = inputs[1], inputs[0]
		},
	}
	for idx, tamper := range tests {
		inputs := proofInputs(t, b, []byte("0123456789abcdef"))
		proofs, err := b.Prove(ctx, inputs)
		if err != nil {
			t.Fatal(err)
		}
		pubs := backendtest.Public(inputs)
		tamper(pubs, proofs)

		err = b.Verify(ctx, pubs, proofs)
		if !errors.Is(err, authdecode.ErrVerificationRejected) {
			t.Errorf("%d: Verify=%v, expected rejection", idx, err)
		}
	}
}

func TestVerifyShape(t *testing.T) {
	b := newBackend(t)
	err := b.Verify(context.Background(), make([]authdecode.PublicInput, 2),
		make([]authdecode.Proof, 1))
	if !errors.Is(err, authdecode.ErrInputShape) {
		t.Fatalf("Verify=%v, expected ErrInputShape", err)
	}
}

func TestCanceled(t *testing.T) {
	b := newBackend(t)
	inputs := proofInputs(t, b, []byte("canceled"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Prove(ctx, inputs); !errors.Is(err, context.Canceled) {
		t.Fatalf("Prove=%v, expected context.Canceled", err)
	}
}
