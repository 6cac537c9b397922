//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package authdecode

import (
	"errors"
	"fmt"
)

var (
	// ErrInputShape is returned for length mismatches between
	// plaintexts, encodings, and batch entries. The failing phase can
	// be retried with corrected inputs.
	ErrInputShape = errors.New("authdecode: invalid input shape")

	// ErrMismatchedBatchSize is returned when two batch lists have
	// different lengths.
	ErrMismatchedBatchSize = fmt.Errorf("%w: mismatched batch size",
		ErrInputShape)

	// ErrCommitment is returned when the backend fails to compute a
	// commitment.
	ErrCommitment = errors.New("authdecode: commitment failed")

	// ErrProofGeneration is returned when the backend fails to
	// produce a proof, including when the proven relation does not
	// hold.
	ErrProofGeneration = errors.New("authdecode: proof generation failed")

	// ErrEncodingVerification is returned when the encoding verifier
	// rejects the full encodings of the Verifier.
	ErrEncodingVerification = errors.New(
		"authdecode: encoding verification failed")

	// ErrInconsistentEncodings is returned when the committed active
	// encodings are not the encodings of the committed plaintext
	// under the Verifier's full encodings.
	ErrInconsistentEncodings = errors.New(
		"authdecode: inconsistent encodings")

	// ErrVerificationRejected is the result of verifying a proof of a
	// false statement.
	ErrVerificationRejected = errors.New(
		"authdecode: verification rejected")

	// ErrStateConsumed is returned when a transition is invoked on a
	// state that already made its transition.
	ErrStateConsumed = errors.New("authdecode: state consumed")
)

// PhaseError wraps a phase failure with the phase and the batch entry
// index. Index is -1 if the failure is not specific to a batch entry.
// The error messages never contain plaintext or encodings.
type PhaseError struct {
	Phase Phase
	Index int
	Err   error
}

func (e *PhaseError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", e.Phase, e.Err)
	}
	return fmt.Sprintf("%s: entry %d: %s", e.Phase, e.Index, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// NewPhaseError creates a phase error. It returns nil if err is nil.
func NewPhaseError(phase Phase, index int, err error) error {
	if err == nil {
		return nil
	}
	return &PhaseError{
		Phase: phase,
		Index: index,
		Err:   err,
	}
}
