//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Package encodings implements the bit encodings authenticated by the
// AuthDecode protocol. Every plaintext bit has two encodings, one for
// the bit value 0 and one for the bit value 1. The party holding both
// encodings of every bit holds the FullEncodings. The party knowing
// the plaintext holds the ActiveEncodings, the encodings selected by
// the plaintext bits.
package encodings

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/maceip/tlsn-authdecode-wasm/ot"
)

var (
	// ErrInvalidLength is returned when encodings are constructed from
	// an empty sequence.
	ErrInvalidLength = errors.New("encodings: invalid length")

	// ErrLengthMismatch is returned when the number of plaintext bits
	// does not match the number of encodings.
	ErrLengthMismatch = errors.New("encodings: length mismatch")

	// ErrInvalidEncoding is returned for nil or negative encodings.
	ErrInvalidEncoding = errors.New("encodings: invalid encoding")
)

// Encoding is an opaque label of one possible value of one plaintext
// bit.
type Encoding struct {
	v *big.Int
}

// NewEncoding creates an encoding from the integer value. The value is
// copied.
func NewEncoding(v *big.Int) (Encoding, error) {
	if v == nil || v.Sign() < 0 {
		return Encoding{}, ErrInvalidEncoding
	}
	return Encoding{
		v: new(big.Int).Set(v),
	}, nil
}

// Int returns a copy of the encoding value.
func (e Encoding) Int() *big.Int {
	if e.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(e.v)
}

// Equal tests if the encodings are equal.
func (e Encoding) Equal(o Encoding) bool {
	return e.Int().Cmp(o.Int()) == 0
}

// FullEncodings holds both encodings of every plaintext bit. The value
// is immutable once constructed.
type FullEncodings struct {
	pairs [][2]Encoding
}

// New creates full encodings from the ordered encoding pairs. The
// element 0 of each pair encodes the bit value 0 and the element 1
// encodes the bit value 1.
func New(pairs [][2]*big.Int) (*FullEncodings, error) {
	if len(pairs) == 0 {
		return nil, ErrInvalidLength
	}
	result := &FullEncodings{
		pairs: make([][2]Encoding, len(pairs)),
	}
	for i, pair := range pairs {
		for j := 0; j < 2; j++ {
			enc, err := NewEncoding(pair[j])
			if err != nil {
				return nil, fmt.Errorf("%w: pair %d element %d", err, i, j)
			}
			result.pairs[i][j] = enc
		}
	}
	return result, nil
}

// FromWires creates full encodings from OT wire labels.
func FromWires(wires []ot.Wire) (*FullEncodings, error) {
	pairs := make([][2]*big.Int, len(wires))
	for i, w := range wires {
		pairs[i] = [2]*big.Int{w.L0.Int(), w.L1.Int()}
	}
	return New(pairs)
}

// Random creates n random encoding pairs of 128 bits each.
func Random(rand io.Reader, n int) (*FullEncodings, error) {
	wires := make([]ot.Wire, n)
	for i := range wires {
		w, err := ot.NewWire(rand)
		if err != nil {
			return nil, err
		}
		wires[i] = w
	}
	return FromWires(wires)
}

// Len returns the number of bit positions.
func (f *FullEncodings) Len() int {
	return len(f.pairs)
}

// Pair returns the encodings of the bit position i.
func (f *FullEncodings) Pair(i int) (zero, one Encoding) {
	return f.pairs[i][0], f.pairs[i][1]
}

// Encode selects the active encodings for the plaintext bits.
func (f *FullEncodings) Encode(bits []bool) (*ActiveEncodings, error) {
	if len(bits) != len(f.pairs) {
		return nil, fmt.Errorf("%w: %d bits, %d encodings",
			ErrLengthMismatch, len(bits), len(f.pairs))
	}
	active := &ActiveEncodings{
		encodings: make([]Encoding, len(bits)),
	}
	for i, bit := range bits {
		if bit {
			active.encodings[i] = f.pairs[i][1]
		} else {
			active.encodings[i] = f.pairs[i][0]
		}
	}
	return active, nil
}

// Slice returns the full encodings of the bit positions [from:to).
func (f *FullEncodings) Slice(from, to int) (*FullEncodings, error) {
	if from < 0 || to > len(f.pairs) || from >= to {
		return nil, fmt.Errorf("%w: slice [%d:%d] of %d",
			ErrInvalidLength, from, to, len(f.pairs))
	}
	return &FullEncodings{
		pairs: f.pairs[from:to],
	}, nil
}

// ZeroSum returns the sum of the encodings of the bit value 0.
func (f *FullEncodings) ZeroSum() *big.Int {
	sum := new(big.Int)
	for _, pair := range f.pairs {
		sum.Add(sum, pair[0].v)
	}
	return sum
}

// Deltas returns the differences of the one and zero encodings for
// every bit position. The deltas can be negative.
func (f *FullEncodings) Deltas() []*big.Int {
	result := make([]*big.Int, len(f.pairs))
	for i, pair := range f.pairs {
		result[i] = new(big.Int).Sub(pair[1].v, pair[0].v)
	}
	return result
}

// Equal tests if the full encodings are equal.
func (f *FullEncodings) Equal(o *FullEncodings) bool {
	if len(f.pairs) != len(o.pairs) {
		return false
	}
	for i := range f.pairs {
		if !f.pairs[i][0].Equal(o.pairs[i][0]) ||
			!f.pairs[i][1].Equal(o.pairs[i][1]) {
			return false
		}
	}
	return true
}

// Pairs returns a copy of the encoding pairs as integers.
func (f *FullEncodings) Pairs() [][2]*big.Int {
	result := make([][2]*big.Int, len(f.pairs))
	for i, pair := range f.pairs {
		result[i] = [2]*big.Int{pair[0].Int(), pair[1].Int()}
	}
	return result
}

// Digest computes a SHA-256 digest over the full encodings. The digest
// lets parties pin the full encodings out of band.
func (f *FullEncodings) Digest() [sha256.Size]byte {
	h := sha256.New()
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], uint64(len(f.pairs)))
	h.Write(tmp[:n])
	for _, pair := range f.pairs {
		for _, enc := range pair {
			data := enc.v.Bytes()
			n = binary.PutUvarint(tmp[:], uint64(len(data)))
			h.Write(tmp[:n])
			h.Write(data)
		}
	}
	var digest [sha256.Size]byte
	copy(digest[:], h.Sum(nil))
	return digest
}

// ActiveEncodings holds one encoding per plaintext bit.
type ActiveEncodings struct {
	encodings []Encoding
}

// NewActive creates active encodings from the encoding values.
func NewActive(values []*big.Int) (*ActiveEncodings, error) {
	if len(values) == 0 {
		return nil, ErrInvalidLength
	}
	result := &ActiveEncodings{
		encodings: make([]Encoding, len(values)),
	}
	for i, v := range values {
		enc, err := NewEncoding(v)
		if err != nil {
			return nil, fmt.Errorf("%w: encoding %d", err, i)
		}
		result.encodings[i] = enc
	}
	return result, nil
}

// FromLabels creates active encodings from OT labels.
func FromLabels(labels []ot.Label) (*ActiveEncodings, error) {
	values := make([]*big.Int, len(labels))
	for i, l := range labels {
		values[i] = l.Int()
	}
	return NewActive(values)
}

// Len returns the number of bit positions.
func (a *ActiveEncodings) Len() int {
	return len(a.encodings)
}

// At returns the encoding of the bit position i.
func (a *ActiveEncodings) At(i int) Encoding {
	return a.encodings[i]
}

// Sum returns the sum of the encodings of the bit positions [from:to).
func (a *ActiveEncodings) Sum(from, to int) *big.Int {
	sum := new(big.Int)
	for i := from; i < to && i < len(a.encodings); i++ {
		sum.Add(sum, a.encodings[i].v)
	}
	return sum
}

// Equal tests if the active encodings are equal.
func (a *ActiveEncodings) Equal(o *ActiveEncodings) bool {
	if len(a.encodings) != len(o.encodings) {
		return false
	}
	for i := range a.encodings {
		if !a.encodings[i].Equal(o.encodings[i]) {
			return false
		}
	}
	return true
}

// Values returns a copy of the encodings as integers.
func (a *ActiveEncodings) Values() []*big.Int {
	result := make([]*big.Int, len(a.encodings))
	for i, enc := range a.encodings {
		result[i] = enc.Int()
	}
	return result
}
