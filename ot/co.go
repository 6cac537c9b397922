//
// co.go
//
// Copyright (c) 2019-2025 Markku Rossi
//
// All rights reserved.
//
// Chou Orlandi OT - The Simplest Protocol for Oblivious Transfer.
//  - https://eprint.iacr.org/2015/267.pdf

/*

This implementation is derived from the EMP Toolkit's co.h
(https://github.com/emp-toolkit/emp-ot/blob/master/emp-ot/co.h)
with original license as follows:

MIT License

Copyright (c) 2018 Xiao Wang (wangxiao1254@gmail.com)

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.

Enquiries about further applications and development opportunities are welcome.

*/

package ot

import (
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"io"
	"math/big"
)

var (
	bo    = binary.BigEndian
	_  OT = &CO{}
)

// ErrInvalidPoint is returned when the peer sends a point that is not
// on the curve.
var ErrInvalidPoint = errors.New("ot: invalid curve point")

// CO implements the Chou Orlandi OT as the OT interface. The points
// are exchanged in the compressed form and every received point is
// validated before use.
type CO struct {
	rand   io.Reader
	curve  elliptic.Curve
	hash   hash.Hash
	digest []byte
	io     IO
}

// NewCO creates a new CO OT implementing the OT interface. The
// random source r is used to sample the curve scalars.
func NewCO(r io.Reader) *CO {
	return &CO{
		rand:   r,
		curve:  elliptic.P256(),
		hash:   sha256.New(),
		digest: make([]byte, sha256.Size),
	}
}

// InitSender initializes the OT sender.
func (co *CO) InitSender(io IO) error {
	co.io = io
	if err := SendString(io, co.curve.Params().Name); err != nil {
		return err
	}
	return io.Flush()
}

// InitReceiver initializes the OT receiver.
func (co *CO) InitReceiver(io IO) error {
	co.io = io

	name, err := ReceiveString(io)
	if err != nil {
		return err
	}
	if name != co.curve.Params().Name {
		return fmt.Errorf("ot: invalid curve %s, expected %s",
			name, co.curve.Params().Name)
	}
	return nil
}

func (co *CO) scalar() (*big.Int, error) {
	N := co.curve.Params().N
	for {
		k, err := rand.Int(co.rand, N)
		if err != nil {
			return nil, err
		}
		if k.Sign() > 0 {
			return k, nil
		}
	}
}

func (co *CO) receivePoint() (x, y *big.Int, err error) {
	data, err := co.io.ReceiveData()
	if err != nil {
		return nil, nil, err
	}
	x, y = elliptic.UnmarshalCompressed(co.curve, data)
	if x == nil {
		return nil, nil, ErrInvalidPoint
	}
	return x, y, nil
}

// Send sends the wire labels with OT.
func (co *CO) Send(wires []Wire) error {
	curveParams := co.curve.Params()

	// a <- Zp
	a, err := co.scalar()
	if err != nil {
		return err
	}
	aBytes := a.Bytes()

	// A = G^a
	Ax, Ay := co.curve.ScalarBaseMult(aBytes)

	if err := co.io.SendData(elliptic.MarshalCompressed(co.curve,
		Ax, Ay)); err != nil {
		return err
	}
	if err := co.io.SendUint32(len(wires)); err != nil {
		return err
	}
	if err := co.io.Flush(); err != nil {
		return err
	}

	count, err := co.io.ReceiveUint32()
	if err != nil {
		return err
	}
	if count != len(wires) {
		return fmt.Errorf("ot: receiver selects %d labels, sender has %d",
			count, len(wires))
	}

	// Aa = A^a
	Aax, Aay := co.curve.ScalarMult(Ax, Ay, aBytes)

	// AaInv = {Aax, -Aay}
	AaInvx := new(big.Int).Set(Aax)
	AaInvy := new(big.Int).Sub(curveParams.P, Aay)

	// The receiver sends all its points before it reads any replies
	// so all points must be read before replying.
	Bs := make([][2]*big.Int, len(wires))
	for i := range Bs {
		Bx, By, err := co.receivePoint()
		if err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
		Bs[i] = [2]*big.Int{Bx, By}
	}

	var labelData LabelData
	for i, B := range Bs {
		// k0 = B^a, k1 = (B/A)^a
		Bx, By := co.curve.ScalarMult(B[0], B[1], aBytes)
		Bax, Bay := co.curve.Add(Bx, By, AaInvx, AaInvy)

		wires[i].L0.GetData(&labelData)
		e0 := xor(kdf(co.hash, Bx, By, uint64(i), co.digest[:0]),
			labelData[:])
		if err := co.io.SendData(e0); err != nil {
			return err
		}
		wires[i].L1.GetData(&labelData)
		e1 := xor(kdf(co.hash, Bax, Bay, uint64(i), co.digest[:0]),
			labelData[:])
		if err := co.io.SendData(e1); err != nil {
			return err
		}
	}
	return co.io.Flush()
}

// Receive receives the wire labels with OT based on the flag values.
func (co *CO) Receive(flags []bool, result []Label) error {
	if len(flags) != len(result) {
		return fmt.Errorf("ot: %d flags, %d result labels",
			len(flags), len(result))
	}
	Ax, Ay, err := co.receivePoint()
	if err != nil {
		return err
	}
	count, err := co.io.ReceiveUint32()
	if err != nil {
		return err
	}
	if err := co.io.SendUint32(len(flags)); err != nil {
		return err
	}
	if count != len(flags) {
		co.io.Flush()
		return fmt.Errorf("ot: sender has %d labels, receiver selects %d",
			count, len(flags))
	}

	bs := make([][]byte, len(flags))
	for i, flag := range flags {
		// b <- Zp
		b, err := co.scalar()
		if err != nil {
			return err
		}
		bs[i] = b.Bytes()

		Bx, By := co.curve.ScalarBaseMult(bs[i])
		if flag {
			Bx, By = co.curve.Add(Bx, By, Ax, Ay)
		}
		if err := co.io.SendData(elliptic.MarshalCompressed(co.curve,
			Bx, By)); err != nil {
			return err
		}
	}
	if err := co.io.Flush(); err != nil {
		return err
	}

	for i, flag := range flags {
		Asx, Asy := co.curve.ScalarMult(Ax, Ay, bs[i])

		e0, err := co.io.ReceiveData()
		if err != nil {
			return err
		}
		// The received data may be overwritten by the next receive.
		e0 = append([]byte(nil), e0...)
		e1, err := co.io.ReceiveData()
		if err != nil {
			return err
		}
		e := e0
		if flag {
			e = e1
		}
		data := xor(kdf(co.hash, Asx, Asy, uint64(i), co.digest[:0]), e)
		if err := result[i].SetBytes(data); err != nil {
			return err
		}
	}
	return nil
}

func kdf(hash hash.Hash, x, y *big.Int, id uint64, digest []byte) []byte {
	hash.Reset()
	hash.Write(x.Bytes())
	hash.Write(y.Bytes())

	var tmp [8]byte
	bo.PutUint64(tmp[:], id)
	hash.Write(tmp[:])

	return hash.Sum(digest)
}

func xor(a, b []byte) []byte {
	l := len(a)
	if len(b) < l {
		l = len(b)
	}
	for i := 0; i < l; i++ {
		a[i] ^= b[i]
	}
	return a[:l]
}
