//
// label.go
//
// Copyright (c) 2019-2025 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/big"
)

// Wire holds the 0 and 1 labels of one bit position.
type Wire struct {
	L0 Label
	L1 Label
}

func (w Wire) String() string {
	return fmt.Sprintf("%s/%s", w.L0, w.L1)
}

// NewWire creates a wire with two independent random labels.
func NewWire(rand io.Reader) (Wire, error) {
	var w Wire
	var err error

	w.L0, err = NewLabel(rand)
	if err != nil {
		return w, err
	}
	w.L1, err = NewLabel(rand)
	if err != nil {
		return w, err
	}
	return w, nil
}

// Label implements a 128 bit label.
type Label struct {
	D0 uint64
	D1 uint64
}

// LabelData contains label data as byte array.
type LabelData [16]byte

func (l Label) String() string {
	return fmt.Sprintf("%016x%016x", l.D0, l.D1)
}

// Equal test if the labels are equal.
func (l Label) Equal(o Label) bool {
	return l.D0 == o.D0 && l.D1 == o.D1
}

// NewLabel creates a new random label.
func NewLabel(rand io.Reader) (Label, error) {
	var buf LabelData
	var label Label

	if _, err := io.ReadFull(rand, buf[:]); err != nil {
		return label, err
	}
	label.SetData(&buf)
	return label, nil
}

// Int returns the label as an unsigned big-endian integer.
func (l Label) Int() *big.Int {
	var buf LabelData
	return new(big.Int).SetBytes(l.Bytes(&buf))
}

// GetData gets the labels as label data.
func (l Label) GetData(buf *LabelData) {
	binary.BigEndian.PutUint64(buf[0:8], l.D0)
	binary.BigEndian.PutUint64(buf[8:16], l.D1)
}

// SetData sets the labels from label data.
func (l *Label) SetData(data *LabelData) {
	l.D0 = binary.BigEndian.Uint64((*data)[0:8])
	l.D1 = binary.BigEndian.Uint64((*data)[8:16])
}

// Bytes returns the label data as bytes.
func (l Label) Bytes(buf *LabelData) []byte {
	l.GetData(buf)
	return buf[:]
}

// SetBytes sets the label data from bytes.
func (l *Label) SetBytes(data []byte) error {
	if len(data) != len(LabelData{}) {
		return fmt.Errorf("ot: invalid label length %d", len(data))
	}
	l.D0 = binary.BigEndian.Uint64(data[0:8])
	l.D1 = binary.BigEndian.Uint64(data[8:16])
	return nil
}
