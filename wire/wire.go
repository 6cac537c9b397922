//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Package wire implements the binary encoding of the artifacts the
// AuthDecode roles exchange: commitments, verification data, and
// proof sets. Every message starts with a two byte magic followed by
// uvarint counts and length prefixed chunks.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"

	"github.com/maceip/tlsn-authdecode-wasm/authdecode"
	"github.com/maceip/tlsn-authdecode-wasm/encodings"
)

const (
	// magicCommitments tags commitment batch encodings.
	magicCommitments = "CM"

	// magicVerificationData tags verification data encodings.
	magicVerificationData = "VD"

	// magicProofSets tags proof set batch encodings.
	magicProofSets = "PS"
)

const (
	// chunkSizeLimit bounds a single encoded chunk.
	chunkSizeLimit = 16 * 1024 * 1024

	// countLimit bounds the number of elements of a sequence.
	countLimit = 1 << 24
)

// ErrInvalidMessage is returned for malformed messages.
var ErrInvalidMessage = errors.New("wire: invalid message")

// EncodeCommitments encodes the commitments of a batch.
func EncodeCommitments(commitments []authdecode.Commitment) []byte {
	var buf bytes.Buffer
	buf.WriteString(magicCommitments)
	writeCount(&buf, len(commitments))
	for _, c := range commitments {
		writeCount(&buf, c.PlaintextLength)
		writeCount(&buf, len(c.Chunks))
		for _, chunk := range c.Chunks {
			writeChunk(&buf, chunk.PlaintextDigest)
			writeChunk(&buf, chunk.EncodingSumDigest)
		}
	}
	return buf.Bytes()
}

// DecodeCommitments decodes the commitments of a batch.
func DecodeCommitments(data []byte) ([]authdecode.Commitment, error) {
	r, err := newReader(data, magicCommitments)
	if err != nil {
		return nil, err
	}
	count, err := readCount(r)
	if err != nil {
		return nil, err
	}
	result := make([]authdecode.Commitment, count)
	for i := range result {
		result[i].PlaintextLength, err = readLength(r)
		if err != nil {
			return nil, err
		}
		numChunks, err := readCount(r)
		if err != nil {
			return nil, err
		}
		result[i].Chunks = make([]authdecode.ChunkCommitment, numChunks)
		for j := range result[i].Chunks {
			chunk := &result[i].Chunks[j]
			chunk.PlaintextDigest, err = readChunk(r)
			if err != nil {
				return nil, err
			}
			chunk.EncodingSumDigest, err = readChunk(r)
			if err != nil {
				return nil, err
			}
		}
	}
	return result, finish(r)
}

// EncodeVerificationData encodes the verification data.
func EncodeVerificationData(vd *authdecode.VerificationData) []byte {
	var buf bytes.Buffer
	buf.WriteString(magicVerificationData)
	writeChunk(&buf, vd.InitData)
	writeCount(&buf, len(vd.FullEncodings))
	for _, full := range vd.FullEncodings {
		pairs := full.Pairs()
		writeCount(&buf, len(pairs))
		for _, pair := range pairs {
			writeBigInt(&buf, pair[0])
			writeBigInt(&buf, pair[1])
		}
	}
	return buf.Bytes()
}

// DecodeVerificationData decodes the verification data.
func DecodeVerificationData(data []byte) (*authdecode.VerificationData, error) {
	r, err := newReader(data, magicVerificationData)
	if err != nil {
		return nil, err
	}
	initData, err := readChunk(r)
	if err != nil {
		return nil, err
	}
	count, err := readCount(r)
	if err != nil {
		return nil, err
	}
	vd := &authdecode.VerificationData{
		InitData:      initData,
		FullEncodings: make([]*encodings.FullEncodings, count),
	}
	for i := range vd.FullEncodings {
		numPairs, err := readCount(r)
		if err != nil {
			return nil, err
		}
		// Each pair takes at least two bytes.
		if numPairs > r.Len()/2 {
			return nil, fmt.Errorf("%w: %d pairs exceed message",
				ErrInvalidMessage, numPairs)
		}
		pairs := make([][2]*big.Int, numPairs)
		for j := range pairs {
			for k := 0; k < 2; k++ {
				pairs[j][k], err = readBigInt(r)
				if err != nil {
					return nil, err
				}
			}
		}
		vd.FullEncodings[i], err = encodings.New(pairs)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
		}
	}
	return vd, finish(r)
}

// EncodeProofSets encodes the proof sets of a batch.
func EncodeProofSets(sets []authdecode.ProofSet) []byte {
	var buf bytes.Buffer
	buf.WriteString(magicProofSets)
	writeCount(&buf, len(sets))
	for _, set := range sets {
		writeCount(&buf, len(set.Proofs))
		for _, proof := range set.Proofs {
			writeChunk(&buf, proof)
		}
	}
	return buf.Bytes()
}

// DecodeProofSets decodes the proof sets of a batch.
func DecodeProofSets(data []byte) ([]authdecode.ProofSet, error) {
	r, err := newReader(data, magicProofSets)
	if err != nil {
		return nil, err
	}
	count, err := readCount(r)
	if err != nil {
		return nil, err
	}
	result := make([]authdecode.ProofSet, count)
	for i := range result {
		numProofs, err := readCount(r)
		if err != nil {
			return nil, err
		}
		result[i].Proofs = make([]authdecode.Proof, numProofs)
		for j := range result[i].Proofs {
			result[i].Proofs[j], err = readChunk(r)
			if err != nil {
				return nil, err
			}
		}
	}
	return result, finish(r)
}

func newReader(data []byte, magic string) (*bytes.Reader, error) {
	r := bytes.NewReader(data)
	tag := make([]byte, len(magic))
	if _, err := io.ReadFull(r, tag); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if string(tag) != magic {
		return nil, fmt.Errorf("%w: magic %q, expected %q", ErrInvalidMessage,
			tag, magic)
	}
	return r, nil
}

func finish(r *bytes.Reader) error {
	if r.Len() != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrInvalidMessage, r.Len())
	}
	return nil
}

// writeCount writes a uvarint count.
func writeCount(buf *bytes.Buffer, count int) {
	var scratch [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(scratch[:], uint64(count))
	buf.Write(scratch[:n])
}

// readCount reads a uvarint count. Every counted element takes at
// least one byte so the count is also bounded by the remaining data.
func readCount(r *bytes.Reader) (int, error) {
	count, err := binary.ReadUvarint(r)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if count > countLimit || count > uint64(r.Len()) {
		return 0, fmt.Errorf("%w: count %d exceeds limit", ErrInvalidMessage,
			count)
	}
	return int(count), nil
}

// readLength reads a uvarint length that does not count message
// elements.
func readLength(r *bytes.Reader) (int, error) {
	length, err := binary.ReadUvarint(r)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if length > math.MaxInt32 {
		return 0, fmt.Errorf("%w: length %d exceeds limit", ErrInvalidMessage,
			length)
	}
	return int(length), nil
}

// writeChunk writes a length-prefixed byte slice.
func writeChunk(buf *bytes.Buffer, data []byte) {
	writeCount(buf, len(data))
	buf.Write(data)
}

// readChunk reads a single length-prefixed byte slice.
func readChunk(r *bytes.Reader) ([]byte, error) {
	length, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if length > chunkSizeLimit {
		return nil, fmt.Errorf("%w: chunk length %d exceeds limit %d",
			ErrInvalidMessage, length, chunkSizeLimit)
	}
	if int64(length) > int64(r.Len()) {
		return nil, fmt.Errorf("%w: chunk length %d exceeds remaining %d",
			ErrInvalidMessage, length, r.Len())
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

// writeBigInt writes a length-prefixed big integer.
func writeBigInt(buf *bytes.Buffer, v *big.Int) {
	writeChunk(buf, v.Bytes())
}

// readBigInt reads a length-prefixed big integer.
func readBigInt(r *bytes.Reader) (*big.Int, error) {
	data, err := readChunk(r)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(data), nil
}
