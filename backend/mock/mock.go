//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Package mock implements a transparent AuthDecode proof backend. The
// proofs open the commitments and the Verifier checks the relation
// directly. The backend is sound but not zero-knowledge: it reveals
// the plaintext to the Verifier and is intended for protocol tests
// only.
package mock

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/maceip/tlsn-authdecode-wasm/authdecode"
	"golang.org/x/crypto/blake2b"
)

// DefaultChunkSize is the default number of plaintext bytes covered by
// one proof.
const DefaultChunkSize = 124

const saltSize = 16

var (
	_ authdecode.ProverBackend   = &Backend{}
	_ authdecode.VerifierBackend = &Backend{}

	// ErrRelation is returned when the relation of a proof input does
	// not hold.
	ErrRelation = errors.New("mock: relation does not hold")
)

// Domain separation tags of the digests.
const (
	tagPlaintext byte = iota + 1
	tagEncodingSum
)

// Backend implements both roles of the transparent backend.
type Backend struct {
	chunkSize int
}

// New creates a transparent backend with the chunk size.
func New(chunkSize int) (*Backend, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("mock: invalid chunk size %d", chunkSize)
	}
	return &Backend{
		chunkSize: chunkSize,
	}, nil
}

// ChunkSize implements authdecode.ProverBackend.ChunkSize.
func (b *Backend) ChunkSize() int {
	return b.chunkSize
}

func digest(tag byte, salt, data []byte) []byte {
	h, _ := blake2b.New256(nil)
	h.Write([]byte{tag})
	h.Write(salt)
	h.Write(data)
	return h.Sum(nil)
}

func newSalt(rand io.Reader) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// CommitPlaintext implements authdecode.ProverBackend.CommitPlaintext.
func (b *Backend) CommitPlaintext(rand io.Reader, chunk []byte) (
	[]byte, []byte, error) {

	if len(chunk) != b.chunkSize {
		return nil, nil, fmt.Errorf("mock: invalid chunk length %d",
			len(chunk))
	}
	salt, err := newSalt(rand)
	if err != nil {
		return nil, nil, err
	}
	return digest(tagPlaintext, salt, chunk), salt, nil
}

// CommitEncodingSum implements
// authdecode.ProverBackend.CommitEncodingSum.
func (b *Backend) CommitEncodingSum(rand io.Reader, sum *big.Int) (
	[]byte, []byte, error) {

	if sum.Sign() < 0 {
		return nil, nil, fmt.Errorf("mock: negative encoding sum")
	}
	salt, err := newSalt(rand)
	if err != nil {
		return nil, nil, err
	}
	return digest(tagEncodingSum, salt, sum.Bytes()), salt, nil
}

// Prove implements authdecode.ProverBackend.Prove.
func (b *Backend) Prove(ctx context.Context, inputs []authdecode.ProofInput) (
	[]authdecode.Proof, error) {

	result := make([]authdecode.Proof, len(inputs))
	for idx, input := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		o := &opening{
			plaintext:       input.Plaintext,
			plaintextSalt:   input.PlaintextSalt,
			encodingSum:     input.EncodingSum.Bytes(),
			encodingSumSalt: input.EncodingSumSalt,
		}
		if err := b.check(input.Public, o); err != nil {
			return nil, fmt.Errorf("chunk %d: %w", idx, err)
		}
		result[idx] = o.marshal()
	}
	return result, nil
}

// Verify implements authdecode.VerifierBackend.Verify.
func (b *Backend) Verify(ctx context.Context, inputs []authdecode.PublicInput,
	proofs []authdecode.Proof) error {

	if len(inputs) != len(proofs) {
		return fmt.Errorf("%w: %d inputs, %d proofs",
			authdecode.ErrInputShape, len(inputs), len(proofs))
	}
	for idx, proof := range proofs {
		if err := ctx.Err(); err != nil {
			return err
		}
		o, err := unmarshalOpening(proof)
		if err != nil {
			return fmt.Errorf("%w: chunk %d: %v",
				authdecode.ErrVerificationRejected, idx, err)
		}
		if err := b.check(inputs[idx], o); err != nil {
			return fmt.Errorf("%w: chunk %d: %v",
				authdecode.ErrVerificationRejected, idx, err)
		}
	}
	return nil
}

func (b *Backend) check(pub authdecode.PublicInput, o *opening) error {
	if len(o.plaintext) != b.chunkSize {
		return fmt.Errorf("mock: invalid chunk length %d", len(o.plaintext))
	}
	if !bytes.Equal(digest(tagPlaintext, o.plaintextSalt, o.plaintext),
		pub.PlaintextDigest) {
		return fmt.Errorf("%w: plaintext digest", ErrRelation)
	}
	if !bytes.Equal(digest(tagEncodingSum, o.encodingSumSalt, o.encodingSum),
		pub.EncodingSumDigest) {
		return fmt.Errorf("%w: encoding sum digest", ErrRelation)
	}
	sum, err := authdecode.Relation(pub, o.plaintext)
	if err != nil {
		return err
	}
	if sum.Cmp(new(big.Int).SetBytes(o.encodingSum)) != 0 {
		return fmt.Errorf("%w: encoding sum", ErrRelation)
	}
	return nil
}

// opening holds the opened commitments of one chunk.
type opening struct {
	plaintext       []byte
	plaintextSalt   []byte
	encodingSum     []byte
	encodingSumSalt []byte
}

func (o *opening) fields() []*[]byte {
	return []*[]byte{
		&o.plaintext, &o.plaintextSalt, &o.encodingSum, &o.encodingSumSalt,
	}
}

func (o *opening) marshal() []byte {
	var buf []byte
	for _, f := range o.fields() {
		buf = binary.AppendUvarint(buf, uint64(len(*f)))
		buf = append(buf, *f...)
	}
	return buf
}

func unmarshalOpening(data []byte) (*opening, error) {
	o := new(opening)
	for _, f := range o.fields() {
		l, n := binary.Uvarint(data)
		if n <= 0 || l > uint64(len(data)-n) {
			return nil, fmt.Errorf("mock: truncated proof")
		}
		data = data[n:]
		*f = data[:l]
		data = data[l:]
	}
	if len(data) != 0 {
		return nil, fmt.Errorf("mock: trailing data in proof")
	}
	return o, nil
}
