//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Package groth16 implements the AuthDecode proof backend with gnark
// Groth16 proofs over the BN254 curve. The commitments are salted MiMC
// digests of the plaintext chunk and of the encoding sum.
//
// The setup is randomized. The keys of one Setup call are mutually
// consistent but keys of different calls are not interchangeable. Use
// LoadOrSetup to persist one key pair and share it between the roles.
package groth16

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/logger"
)

// DefaultChunkSize is the default number of plaintext bytes covered by
// one proof.
const DefaultChunkSize = 4 * ElementSize

const keyMagic = 0x41444731 // "ADG1"

var bo = binary.BigEndian

// ErrInvalidKey is returned when a serialized key is malformed.
var ErrInvalidKey = errors.New("groth16: invalid key")

func init() {
	logger.Disable()
}

// ProvingKey holds the Prover's setup artifacts.
type ProvingKey struct {
	chunkSize int
	ccs       constraint.ConstraintSystem
	pk        groth16.ProvingKey
}

// VerificationKey holds the Verifier's setup artifacts.
type VerificationKey struct {
	chunkSize int
	vk        groth16.VerifyingKey
}

// ChunkSize returns the number of plaintext bytes covered by one
// proof.
func (key *ProvingKey) ChunkSize() int {
	return key.chunkSize
}

// ChunkSize returns the number of plaintext bytes covered by one
// proof.
func (key *VerificationKey) ChunkSize() int {
	return key.chunkSize
}

func checkChunkSize(chunkSize int) error {
	if chunkSize <= 0 || chunkSize%ElementSize != 0 {
		return fmt.Errorf("groth16: chunk size %d is not a multiple of %d",
			chunkSize, ElementSize)
	}
	return nil
}

func compile(chunkSize int) (constraint.ConstraintSystem, error) {
	if err := checkChunkSize(chunkSize); err != nil {
		return nil, err
	}
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder,
		newCircuit(chunkSize))
	if err != nil {
		return nil, fmt.Errorf("groth16: compile: %w", err)
	}
	return ccs, nil
}

// Setup compiles the chunk circuit and creates a new key pair for it.
func Setup(chunkSize int) (*ProvingKey, *VerificationKey, error) {
	ccs, err := compile(chunkSize)
	if err != nil {
		return nil, nil, err
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, nil, fmt.Errorf("groth16: setup: %w", err)
	}
	return &ProvingKey{
			chunkSize: chunkSize,
			ccs:       ccs,
			pk:        pk,
		}, &VerificationKey{
			chunkSize: chunkSize,
			vk:        vk,
		}, nil
}

func writeHeader(w io.Writer, chunkSize int) (int64, error) {
	var hdr [8]byte
	bo.PutUint32(hdr[0:4], keyMagic)
	bo.PutUint32(hdr[4:8], uint32(chunkSize))
	n, err := w.Write(hdr[:])
	return int64(n), err
}

func readHeader(r io.Reader) (int, int64, error) {
	var hdr [8]byte
	n, err := io.ReadFull(r, hdr[:])
	if err != nil {
		return 0, int64(n), err
	}
	if bo.Uint32(hdr[0:4]) != keyMagic {
		return 0, int64(n), fmt.Errorf("%w: invalid magic", ErrInvalidKey)
	}
	chunkSize := int(bo.Uint32(hdr[4:8]))
	if err := checkChunkSize(chunkSize); err != nil {
		return 0, int64(n), fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return chunkSize, int64(n), nil
}

// WriteTo implements io.WriterTo.
func (key *ProvingKey) WriteTo(w io.Writer) (int64, error) {
	n, err := writeHeader(w, key.chunkSize)
	if err != nil {
		return n, err
	}
	m, err := key.pk.WriteTo(w)
	return n + m, err
}

// ReadFrom implements io.ReaderFrom. The constraint system is
// recompiled for the chunk size of the key.
func (key *ProvingKey) ReadFrom(r io.Reader) (int64, error) {
	chunkSize, n, err := readHeader(r)
	if err != nil {
		return n, err
	}
	ccs, err := compile(chunkSize)
	if err != nil {
		return n, err
	}
	pk := groth16.NewProvingKey(ecc.BN254)
	m, err := pk.ReadFrom(r)
	if err != nil {
		return n + m, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	key.chunkSize = chunkSize
	key.ccs = ccs
	key.pk = pk

	return n + m, nil
}

// WriteTo implements io.WriterTo.
func (key *VerificationKey) WriteTo(w io.Writer) (int64, error) {
	n, err := writeHeader(w, key.chunkSize)
	if err != nil {
		return n, err
	}
	m, err := key.vk.WriteTo(w)
	return n + m, err
}

// ReadFrom implements io.ReaderFrom.
func (key *VerificationKey) ReadFrom(r io.Reader) (int64, error) {
	chunkSize, n, err := readHeader(r)
	if err != nil {
		return n, err
	}
	vk := groth16.NewVerifyingKey(ecc.BN254)
	m, err := vk.ReadFrom(r)
	if err != nil {
		return n + m, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	key.chunkSize = chunkSize
	key.vk = vk

	return n + m, nil
}

// Store persists the setup artifacts.
type Store interface {
	// Load reads the named artifact into r. It returns false if the
	// store does not have the artifact.
	Load(name string, r io.ReaderFrom) (bool, error)

	// Save stores the named artifact from w.
	Save(name string, w io.WriterTo) error
}

// KeyNames returns the store names of the keys of the chunk size.
func KeyNames(chunkSize int) (pkName, vkName string) {
	prefix := fmt.Sprintf("groth16/bn254/%d/", chunkSize)
	return prefix + "pk", prefix + "vk"
}

// LoadOrSetup loads the keys of the chunk size from the store. If the
// store does not have both keys, LoadOrSetup runs Setup and saves the
// new keys. The created return value tells if Setup was run.
func LoadOrSetup(store Store, chunkSize int) (
	pk *ProvingKey, vk *VerificationKey, created bool, err error) {

	pkName, vkName := KeyNames(chunkSize)

	pk = new(ProvingKey)
	vk = new(VerificationKey)

	pkOK, err := store.Load(pkName, pk)
	if err != nil {
		return nil, nil, false, err
	}
	vkOK, err := store.Load(vkName, vk)
	if err != nil {
		return nil, nil, false, err
	}
	if pkOK && vkOK {
		if pk.chunkSize != chunkSize || vk.chunkSize != chunkSize {
			return nil, nil, false, fmt.Errorf("%w: stored chunk size",
				ErrInvalidKey)
		}
		return pk, vk, false, nil
	}

	pk, vk, err = Setup(chunkSize)
	if err != nil {
		return nil, nil, false, err
	}
	if err := store.Save(pkName, pk); err != nil {
		return nil, nil, false, err
	}
	if err := store.Save(vkName, vk); err != nil {
		return nil, nil, false, err
	}
	return pk, vk, true, nil
}
