//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package wire

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maceip/tlsn-authdecode-wasm/authdecode"
	"github.com/maceip/tlsn-authdecode-wasm/encodings"
	"github.com/maceip/tlsn-authdecode-wasm/prg"
)

func testCommitments() []authdecode.Commitment {
	return []authdecode.Commitment{
		{
			PlaintextLength: 130,
			Chunks: []authdecode.ChunkCommitment{
				{PlaintextDigest: []byte{1, 2}, EncodingSumDigest: []byte{3}},
				{PlaintextDigest: []byte{4}, EncodingSumDigest: []byte{5, 6}},
			},
		},
		{
			PlaintextLength: 1,
			Chunks: []authdecode.ChunkCommitment{
				{
					PlaintextDigest:   bytes.Repeat([]byte{7}, 32),
					EncodingSumDigest: bytes.Repeat([]byte{8}, 32),
				},
			},
		},
	}
}

func TestCommitments(t *testing.T) {
	commitments := testCommitments()
	decoded, err := DecodeCommitments(EncodeCommitments(commitments))
	require.NoError(t, err)
	require.Equal(t, commitments, decoded)

	decoded, err = DecodeCommitments(EncodeCommitments(nil))
	require.NoError(t, err)
	require.Empty(t, decoded)
}

func TestVerificationData(t *testing.T) {
	rand := prg.New(prg.Seed{3})
	a, err := encodings.Random(rand, 16)
	require.NoError(t, err)
	b, err := encodings.Random(rand, 8)
	require.NoError(t, err)

	vd := &authdecode.VerificationData{
		FullEncodings: []*encodings.FullEncodings{a, b},
		InitData:      bytes.Repeat([]byte{1}, 100),
	}
	decoded, err := DecodeVerificationData(EncodeVerificationData(vd))
	require.NoError(t, err)
	require.Equal(t, []byte(vd.InitData), []byte(decoded.InitData))
	require.Len(t, decoded.FullEncodings, 2)
	for i := range vd.FullEncodings {
		if !vd.FullEncodings[i].Equal(decoded.FullEncodings[i]) {
			t.Fatalf("full encodings %d differ", i)
		}
	}
}

func TestProofSets(t *testing.T) {
	sets := []authdecode.ProofSet{
		{Proofs: []authdecode.Proof{{1, 2, 3}, {4}}},
		{Proofs: []authdecode.Proof{bytes.Repeat([]byte{9}, 1000)}},
	}
	decoded, err := DecodeProofSets(EncodeProofSets(sets))
	require.NoError(t, err)
	require.Equal(t, sets, decoded)
}

func TestMagic(t *testing.T) {
	data := EncodeProofSets(nil)
	_, err := DecodeCommitments(data)
	if !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("DecodeCommitments(proof sets) = %v", err)
	}
	_, err = DecodeVerificationData(nil)
	if !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("DecodeVerificationData(nil) = %v", err)
	}
}

func TestMalformed(t *testing.T) {
	data := EncodeCommitments(testCommitments())

	for i := len(magicCommitments); i < len(data); i++ {
		_, err := DecodeCommitments(data[:i])
		if !errors.Is(err, ErrInvalidMessage) {
			t.Fatalf("truncated at %d: %v", i, err)
		}
	}

	_, err := DecodeCommitments(append(data, 0))
	if !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("trailing data: %v", err)
	}

	huge := []byte(magicProofSets)
	huge = append(huge, 0xff, 0xff, 0xff, 0xff, 0x0f)
	_, err = DecodeProofSets(huge)
	if !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("huge count: %v", err)
	}
}

func TestEmptyEncodings(t *testing.T) {
	// One entry with zero pairs.
	data := []byte(magicVerificationData)
	data = append(data, 0, 1, 0)
	_, err := DecodeVerificationData(data)
	if !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("empty encodings: %v", err)
	}
}
