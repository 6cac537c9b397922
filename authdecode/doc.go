//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Package authdecode defines the artifacts exchanged by the AuthDecode
// Prover and Verifier, the proof backend contract, and the error
// taxonomy of the protocol.
//
// AuthDecode lets a Prover convince a Verifier that a plaintext
// corresponds to the active encodings the Prover holds, where the
// Verifier knows the full encodings of every plaintext bit. The
// protocol runs in the following phases:
//
//	Prover                              Verifier
//	------                              --------
//	Initial
//	  |-- Commit ----- commitments ---->  Initial
//	Committed                              |-- ReceiveCommitments
//	  <-------- verification data -------  CommitmentsReceived
//	  |-- Check
//	Checked
//	  |-- Prove ------ proof sets ----->   |-- Verify
//	Proved                              Accepted | Rejected
//
// The plaintext is split into chunks of the backend's chunk size. For
// each chunk, the Prover commits to the plaintext and to the sum of
// its active encodings. The backend proves that the committed sum
// equals
//
//	zeroSum + Σ bit_i · delta_i
//
// where zeroSum is the sum of the bit value 0 encodings of the chunk
// and delta_i is the difference of the two encodings of the bit i.
// Both values are public to the Verifier.
package authdecode
