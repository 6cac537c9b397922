//
// ot.go
//
// Copyright (c) 2023-2025 Markku Rossi
//
// All rights reserved.
//

// Package ot implements the 1-out-of-2 oblivious transfer that
// delivers the active encodings of the plaintext bits to the Prover.
// The Verifier sends both labels of every bit position and the Prover
// learns only the labels its plaintext bits select.
package ot

// OT defines a batched 1-out-of-2 oblivious transfer. The sender
// passes one Wire per bit position to Send and the receiver passes one
// selection bit per position to Receive. Both sides exchange the batch
// size and fail if their counts differ.
type OT interface {
	// InitSender binds the sender to the connection.
	InitSender(io IO) error

	// InitReceiver binds the receiver to the connection.
	InitReceiver(io IO) error

	// Send transfers the labels of the wires. The receiver learns
	// L1 of the positions it selects and L0 of the rest.
	Send(wires []Wire) error

	// Receive stores the labels the flags select into result, which
	// must have one entry per flag.
	Receive(flags []bool, result []Label) error
}
