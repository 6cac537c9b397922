//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package groth16

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"runtime"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/maceip/tlsn-authdecode-wasm/authdecode"
	"golang.org/x/sync/errgroup"
)

var (
	_ authdecode.ProverBackend = &Prover{}

	// ErrRelation is returned when the relation of a proof input does
	// not hold.
	ErrRelation = errors.New("groth16: relation does not hold")
)

// Prover implements authdecode.ProverBackend.
type Prover struct {
	key *ProvingKey
}

// NewProver creates a new prover backend with the proving key.
func NewProver(key *ProvingKey) *Prover {
	return &Prover{
		key: key,
	}
}

// ChunkSize implements authdecode.ProverBackend.ChunkSize.
func (p *Prover) ChunkSize() int {
	return p.key.chunkSize
}

// CommitPlaintext implements authdecode.ProverBackend.CommitPlaintext.
func (p *Prover) CommitPlaintext(rand io.Reader, chunk []byte) (
	[]byte, []byte, error) {

	if len(chunk) != p.key.chunkSize {
		return nil, nil, fmt.Errorf("groth16: invalid chunk length %d",
			len(chunk))
	}
	salt, err := randomElement(rand)
	if err != nil {
		return nil, nil, err
	}
	digest, err := hashElements(append([]*fr.Element{salt},
		plaintextElements(chunk)...)...)
	if err != nil {
		return nil, nil, err
	}
	return digest, elementBytes(salt), nil
}

// CommitEncodingSum implements
// authdecode.ProverBackend.CommitEncodingSum.
func (p *Prover) CommitEncodingSum(rand io.Reader, sum *big.Int) (
	[]byte, []byte, error) {

	e, err := intElement(sum)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding sum: %w", err)
	}
	salt, err := randomElement(rand)
	if err != nil {
		return nil, nil, err
	}
	digest, err := hashElements(salt, e)
	if err != nil {
		return nil, nil, err
	}
	return digest, elementBytes(salt), nil
}

// Prove implements authdecode.ProverBackend.Prove. The chunks are
// proven in parallel.
func (p *Prover) Prove(ctx context.Context, inputs []authdecode.ProofInput) (
	[]authdecode.Proof, error) {

	result := make([]authdecode.Proof, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for idx := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			proof, err := p.prove(&inputs[idx])
			if err != nil {
				return fmt.Errorf("chunk %d: %w", idx, err)
			}
			result[idx] = proof
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Prover) prove(input *authdecode.ProofInput) (authdecode.Proof, error) {
	if len(input.Plaintext) != p.key.chunkSize {
		return nil, fmt.Errorf("%w: chunk length %d",
			authdecode.ErrInputShape, len(input.Plaintext))
	}
	sum, err := authdecode.Relation(input.Public, input.Plaintext)
	if err != nil {
		return nil, err
	}
	if sum.Cmp(input.EncodingSum) != 0 {
		return nil, ErrRelation
	}

	assignment, err := publicAssignment(p.key.chunkSize, &input.Public)
	if err != nil {
		return nil, err
	}
	for i, e := range plaintextElements(input.Plaintext) {
		assignment.Plaintext[i] = elementInt(e)
	}
	ps, err := parseElement(input.PlaintextSalt)
	if err != nil {
		return nil, fmt.Errorf("plaintext salt: %w", err)
	}
	assignment.PlaintextSalt = elementInt(ps)
	ss, err := parseElement(input.EncodingSumSalt)
	if err != nil {
		return nil, fmt.Errorf("encoding sum salt: %w", err)
	}
	assignment.EncodingSumSalt = elementInt(ss)

	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, err
	}
	proof, err := groth16.Prove(p.key.ccs, p.key.pk, witness)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRelation, err)
	}
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// publicAssignment creates a circuit assignment with the public
// values of the input.
func publicAssignment(chunkSize int, pub *authdecode.PublicInput) (
	*chunkCircuit, error) {

	c := newCircuit(chunkSize)
	if len(pub.Deltas) != len(c.Deltas) {
		return nil, fmt.Errorf("%w: %d deltas, expected %d",
			authdecode.ErrInputShape, len(pub.Deltas), len(c.Deltas))
	}
	pd, err := parseElement(pub.PlaintextDigest)
	if err != nil {
		return nil, fmt.Errorf("plaintext digest: %w", err)
	}
	c.PlaintextDigest = elementInt(pd)

	sd, err := parseElement(pub.EncodingSumDigest)
	if err != nil {
		return nil, fmt.Errorf("encoding sum digest: %w", err)
	}
	c.EncodingSumDigest = elementInt(sd)

	zs, err := intElement(pub.ZeroSum)
	if err != nil {
		return nil, fmt.Errorf("zero sum: %w", err)
	}
	c.ZeroSum = elementInt(zs)

	modulus := fr.Modulus()
	for i, delta := range pub.Deltas {
		c.Deltas[i] = new(big.Int).Mod(delta, modulus)
	}
	// Secret values of a public only witness.
	for i := range c.Plaintext {
		c.Plaintext[i] = 0
	}
	c.PlaintextSalt = 0
	c.EncodingSumSalt = 0

	return c, nil
}
