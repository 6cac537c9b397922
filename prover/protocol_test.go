//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package prover_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/maceip/tlsn-authdecode-wasm/authdecode"
	"github.com/maceip/tlsn-authdecode-wasm/backend/groth16"
	"github.com/maceip/tlsn-authdecode-wasm/backend/mock"
	"github.com/maceip/tlsn-authdecode-wasm/encodings"
	"github.com/maceip/tlsn-authdecode-wasm/prg"
	"github.com/maceip/tlsn-authdecode-wasm/prover"
	"github.com/maceip/tlsn-authdecode-wasm/verifier"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	plaintexts [][]byte
	full       []*encodings.FullEncodings
	batch      []prover.Input
}

func newFixture(t *testing.T, seed byte, sizes ...int) *fixture {
	rand := prg.New(prg.Seed{seed})
	f := new(fixture)
	for _, size := range sizes {
		plaintext := make([]byte, size)
		_, err := rand.Read(plaintext)
		require.NoError(t, err)

		full, err := encodings.Random(rand, size*8)
		require.NoError(t, err)
		active, err := full.Encode(encodings.BytesToBits(plaintext))
		require.NoError(t, err)

		f.plaintexts = append(f.plaintexts, plaintext)
		f.full = append(f.full, full)
		f.batch = append(f.batch, prover.Input{
			Plaintext: plaintext,
			Encodings: active,
		})
	}
	return f
}

func newMock(t *testing.T) *mock.Backend {
	b, err := mock.New(mock.DefaultChunkSize)
	require.NoError(t, err)
	return b
}

// run runs the protocol and returns the final Verifier state.
func run(t *testing.T, pb authdecode.ProverBackend,
	vb authdecode.VerifierBackend, f *fixture, full []*encodings.FullEncodings,
	ev prover.EncodingVerifier) (*verifier.Finished, error) {

	ctx := context.Background()
	initData := authdecode.InitData(bytes.Repeat([]byte{1}, 100))

	p0 := prover.New(pb)
	require.Equal(t, authdecode.PhaseInitial, p0.Phase())

	p1, commitments, err := p0.Commit(ctx, prg.New(prg.Seed{0xff}), f.batch)
	if err != nil {
		return nil, err
	}
	require.Equal(t, authdecode.PhaseCommitted, p1.Phase())
	require.Len(t, commitments, len(f.batch))

	v0 := verifier.New(vb)
	v1, vd, err := v0.ReceiveCommitments(ctx, commitments, full, initData)
	if err != nil {
		return nil, err
	}
	require.Equal(t, authdecode.PhaseCommitmentsReceived, v1.Phase())

	p2, err := p1.Check(ctx, vd, ev)
	if err != nil {
		return nil, err
	}
	require.Equal(t, authdecode.PhaseChecked, p2.Phase())

	p3, proofSets, err := p2.Prove(ctx)
	if err != nil {
		return nil, err
	}
	require.Equal(t, authdecode.PhaseProved, p3.Phase())

	return v1.Verify(ctx, proofSets)
}

func TestCompleteness(t *testing.T) {
	b := newMock(t)
	for _, sizes := range [][]int{
		{1},
		{mock.DefaultChunkSize},
		{mock.DefaultChunkSize + 1},
		{3, 200, 17},
	} {
		f := newFixture(t, 1, sizes...)
		finished, err := run(t, b, b, f, f.full, prover.AcceptAll{})
		require.NoError(t, err)
		require.True(t, finished.Accepted(), "sizes %v: %v", sizes,
			finished.Err())
		require.NoError(t, finished.Err())
	}
}

func TestSoundnessPerturbedEncoding(t *testing.T) {
	b := newMock(t)
	f := newFixture(t, 2, 64)

	// Flip bit 10 to the wrong member of its pair.
	values := f.batch[0].Encodings.Values()
	zero, one := f.full[0].Pair(10)
	if values[10].Cmp(zero.Int()) == 0 {
		values[10] = one.Int()
	} else {
		values[10] = zero.Int()
	}
	active, err := encodings.NewActive(values)
	require.NoError(t, err)
	f.batch[0].Encodings = active

	finished, err := run(t, b, b, f, f.full, prover.AcceptAll{})
	if err == nil {
		require.False(t, finished.Accepted())
	} else {
		require.ErrorIs(t, err, authdecode.ErrInconsistentEncodings)
	}
}

func TestBatchOrdering(t *testing.T) {
	b := newMock(t)
	f := newFixture(t, 3, 32, 32, 32)

	reordered := []*encodings.FullEncodings{f.full[1], f.full[0], f.full[2]}
	finished, err := run(t, b, b, f, reordered, prover.AcceptAll{})
	require.Nil(t, finished)
	require.ErrorIs(t, err, authdecode.ErrInconsistentEncodings)

	var pe *authdecode.PhaseError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, authdecode.PhaseCommitted, pe.Phase)
	require.Equal(t, 0, pe.Index)
}

// TestVerifierOrdering runs a Prover that skips its own consistency
// check by committing against the reordered full encodings. The
// Verifier pairs the commitments with its own full encodings and
// rejects the mismatched entries.
func TestVerifierOrdering(t *testing.T) {
	b := newMock(t)
	f := newFixture(t, 4, 32, 32)
	ctx := context.Background()

	p1, commitments, err := prover.New(b).Commit(ctx, prg.New(prg.Seed{}),
		f.batch)
	require.NoError(t, err)

	v1, _, err := verifier.New(b).ReceiveCommitments(ctx, commitments,
		[]*encodings.FullEncodings{f.full[1], f.full[0]}, nil)
	require.NoError(t, err)

	// The Prover proves against the full encodings it committed to.
	p2, err := p1.Check(ctx, &authdecode.VerificationData{
		FullEncodings: f.full,
	}, prover.AcceptAll{})
	require.NoError(t, err)
	_, proofSets, err := p2.Prove(ctx)
	require.NoError(t, err)

	finished, err := v1.Verify(ctx, proofSets)
	require.NoError(t, err)
	require.False(t, finished.Accepted())
	require.Equal(t, authdecode.PhaseRejected, finished.Phase())
	require.ErrorIs(t, finished.Err(), authdecode.ErrVerificationRejected)
}

type rejectingVerifier struct {
	initData authdecode.InitData
}

var errUntrusted = errors.New("untrusted encodings")

func (v *rejectingVerifier) Init(initData authdecode.InitData) {
	v.initData = initData
}

func (v *rejectingVerifier) Verify(full *encodings.FullEncodings) error {
	return errUntrusted
}

func TestEncodingVerifierGating(t *testing.T) {
	b := newMock(t)
	f := newFixture(t, 5, 16)
	ctx := context.Background()

	p1, commitments, err := prover.New(b).Commit(ctx, prg.New(prg.Seed{}),
		f.batch)
	require.NoError(t, err)
	_, vd, err := verifier.New(b).ReceiveCommitments(ctx, commitments, f.full,
		authdecode.InitData("session"))
	require.NoError(t, err)

	ev := new(rejectingVerifier)
	_, err = p1.Check(ctx, vd, ev)
	require.ErrorIs(t, err, authdecode.ErrEncodingVerification)
	require.ErrorIs(t, err, errUntrusted)
	require.Equal(t, authdecode.InitData("session"), ev.initData)

	// The state is consumed and no proof can follow.
	_, err = p1.Check(ctx, vd, prover.AcceptAll{})
	require.ErrorIs(t, err, authdecode.ErrStateConsumed)
}

func TestDigestVerifier(t *testing.T) {
	b := newMock(t)
	f := newFixture(t, 6, 8, 8)
	initData := authdecode.InitData(bytes.Repeat([]byte{1}, 100))

	ev := prover.NewDigestVerifier(
		prover.PinDigest(initData, f.full[0]),
		prover.PinDigest(initData, f.full[1]))
	finished, err := run(t, b, b, f, f.full, ev)
	require.NoError(t, err)
	require.True(t, finished.Accepted())

	// Pins bound to other InitData.
	ev = prover.NewDigestVerifier(
		prover.PinDigest(nil, f.full[0]),
		prover.PinDigest(nil, f.full[1]))
	_, err = run(t, b, b, f, f.full, ev)
	require.ErrorIs(t, err, prover.ErrDigestMismatch)

	// Missing pin.
	ev = prover.NewDigestVerifier(prover.PinDigest(initData, f.full[0]))
	_, err = run(t, b, b, f, f.full, ev)
	require.ErrorIs(t, err, prover.ErrDigestMismatch)
}

func TestCommitInputShape(t *testing.T) {
	b := newMock(t)
	f := newFixture(t, 7, 4)
	ctx := context.Background()
	p0 := prover.New(b)

	_, _, err := p0.Commit(ctx, prg.New(prg.Seed{}), nil)
	require.ErrorIs(t, err, authdecode.ErrInputShape)

	short, err := encodings.NewActive(f.batch[0].Encodings.Values()[:31])
	require.NoError(t, err)
	_, _, err = p0.Commit(ctx, prg.New(prg.Seed{}), []prover.Input{{
		Plaintext: f.plaintexts[0],
		Encodings: short,
	}})
	require.ErrorIs(t, err, authdecode.ErrInputShape)

	_, _, err = p0.Commit(ctx, prg.New(prg.Seed{}), []prover.Input{{
		Encodings: f.batch[0].Encodings,
	}})
	require.ErrorIs(t, err, authdecode.ErrInputShape)

	// Shape errors leave the state usable.
	p1, commitments, err := p0.Commit(ctx, prg.New(prg.Seed{}), f.batch)
	require.NoError(t, err)
	require.NotNil(t, p1)
	require.Len(t, commitments, 1)

	_, _, err = p0.Commit(ctx, prg.New(prg.Seed{}), f.batch)
	require.ErrorIs(t, err, authdecode.ErrStateConsumed)
}

func TestCommitIsolation(t *testing.T) {
	b := newMock(t)
	f := newFixture(t, 8, 16)
	ctx := context.Background()

	p1, commitments, err := prover.New(b).Commit(ctx, prg.New(prg.Seed{}),
		f.batch)
	require.NoError(t, err)

	// Mutating the caller's plaintext after the commit does not affect
	// the session.
	f.plaintexts[0][0] ^= 0xff

	v1, vd, err := verifier.New(b).ReceiveCommitments(ctx, commitments,
		f.full, nil)
	require.NoError(t, err)
	p2, err := p1.Check(ctx, vd, prover.AcceptAll{})
	require.NoError(t, err)
	_, proofSets, err := p2.Prove(ctx)
	require.NoError(t, err)
	finished, err := v1.Verify(ctx, proofSets)
	require.NoError(t, err)
	require.True(t, finished.Accepted())
}

type failingBackend struct {
	*mock.Backend
}

var errBackend = errors.New("backend failure")

func (b failingBackend) Prove(ctx context.Context,
	inputs []authdecode.ProofInput) ([]authdecode.Proof, error) {
	return nil, errBackend
}

func TestProveFailure(t *testing.T) {
	f := newFixture(t, 9, 16)
	b := failingBackend{newMock(t)}

	_, err := run(t, b, b, f, f.full, prover.AcceptAll{})
	require.ErrorIs(t, err, authdecode.ErrProofGeneration)
	require.ErrorIs(t, err, errBackend)
}

func TestCheckInputShape(t *testing.T) {
	b := newMock(t)
	f := newFixture(t, 10, 8, 8)
	ctx := context.Background()

	p1, _, err := prover.New(b).Commit(ctx, prg.New(prg.Seed{}), f.batch)
	require.NoError(t, err)

	_, err = p1.Check(ctx, &authdecode.VerificationData{
		FullEncodings: f.full[:1],
	}, prover.AcceptAll{})
	require.ErrorIs(t, err, authdecode.ErrMismatchedBatchSize)

	_, err = p1.Check(ctx, nil, prover.AcceptAll{})
	require.ErrorIs(t, err, authdecode.ErrInputShape)

	other := newFixture(t, 11, 8, 9)
	_, err = p1.Check(ctx, &authdecode.VerificationData{
		FullEncodings: other.full,
	}, prover.AcceptAll{})
	require.ErrorIs(t, err, authdecode.ErrInputShape)

	p2, err := p1.Check(ctx, &authdecode.VerificationData{
		FullEncodings: f.full,
	}, prover.AcceptAll{})
	require.NoError(t, err)

	_, _, err = p2.Prove(ctx)
	require.NoError(t, err)
	_, _, err = p2.Prove(ctx)
	require.ErrorIs(t, err, authdecode.ErrStateConsumed)
}

// scenario creates 1000 plaintext bytes and 8000 encoding pairs from
// the keystream of the all-zero seed.
func scenario(t *testing.T) *fixture {
	rand := prg.New(prg.Seed{})
	plaintext := make([]byte, 1000)
	_, err := rand.Read(plaintext)
	require.NoError(t, err)

	full, err := encodings.Random(rand, 8000)
	require.NoError(t, err)
	active, err := full.Encode(encodings.BytesToBits(plaintext))
	require.NoError(t, err)

	return &fixture{
		plaintexts: [][]byte{plaintext},
		full:       []*encodings.FullEncodings{full},
		batch: []prover.Input{{
			Plaintext: plaintext,
			Encodings: active,
		}},
	}
}

func TestScenario(t *testing.T) {
	b := newMock(t)
	f := scenario(t)
	finished, err := run(t, b, b, f, f.full, prover.AcceptAll{})
	require.NoError(t, err)
	require.Equal(t, authdecode.PhaseAccepted, finished.Phase())
}

func TestScenarioGroth16(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping Groth16 scenario in short mode")
	}
	pk, vk, err := groth16.Setup(groth16.DefaultChunkSize)
	require.NoError(t, err)

	f := scenario(t)
	finished, err := run(t, groth16.NewProver(pk), groth16.NewVerifier(vk),
		f, f.full, prover.AcceptAll{})
	require.NoError(t, err)
	require.Equal(t, authdecode.PhaseAccepted, finished.Phase())
}
