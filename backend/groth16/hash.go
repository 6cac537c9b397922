//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package groth16

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
)

// ErrNotCanonical is returned for values that are not canonical
// encodings of BN254 scalar field elements.
var ErrNotCanonical = errors.New("groth16: value is not a field element")

// randomElement samples a random field element of ElementSize bytes.
func randomElement(rand io.Reader) (*fr.Element, error) {
	var buf [fr.Bytes]byte
	if _, err := io.ReadFull(rand, buf[fr.Bytes-ElementSize:]); err != nil {
		return nil, err
	}
	e, err := fr.BigEndian.Element(&buf)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// parseElement parses the canonical big-endian encoding of a field
// element.
func parseElement(data []byte) (*fr.Element, error) {
	if len(data) != fr.Bytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrNotCanonical, len(data))
	}
	e, err := fr.BigEndian.Element((*[fr.Bytes]byte)(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotCanonical, err)
	}
	return &e, nil
}

// intElement converts the non-negative integer to a field element.
func intElement(v *big.Int) (*fr.Element, error) {
	if v.Sign() < 0 || v.Cmp(fr.Modulus()) >= 0 {
		return nil, ErrNotCanonical
	}
	var e fr.Element
	e.SetBigInt(v)
	return &e, nil
}

// plaintextElements packs the chunk into field elements of
// ElementSize big-endian bytes.
func plaintextElements(chunk []byte) []*fr.Element {
	result := make([]*fr.Element, 0, len(chunk)/ElementSize)
	for i := 0; i+ElementSize <= len(chunk); i += ElementSize {
		var e fr.Element
		e.SetBytes(chunk[i : i+ElementSize])
		result = append(result, &e)
	}
	return result
}

// hashElements computes the MiMC digest of the field elements.
func hashElements(elems ...*fr.Element) ([]byte, error) {
	h := mimc.NewMiMC()
	for _, e := range elems {
		b := e.Bytes()
		if _, err := h.Write(b[:]); err != nil {
			return nil, err
		}
	}
	return h.Sum(nil), nil
}

// elementInt returns the field element as an integer.
func elementInt(e *fr.Element) *big.Int {
	return e.BigInt(new(big.Int))
}

// elementBytes returns the canonical encoding of the field element.
func elementBytes(e *fr.Element) []byte {
	b := e.Bytes()
	return b[:]
}
