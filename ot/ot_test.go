//
// ot_test.go
//
// Copyright (c) 2023-2025 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/maceip/tlsn-authdecode-wasm/transport"
)

func newWires(size int, t testing.TB) []Wire {
	wires := make([]Wire, size)
	for i := range wires {
		w, err := NewWire(rand.Reader)
		if err != nil {
			t.Fatal(err)
		}
		wires[i] = w
	}
	return wires
}

func testOT(sender, receiver OT, size int, t *testing.T) {
	wires := newWires(size, t)
	flags := make([]bool, size)
	labels := make([]Label, size)
	for i := range flags {
		flags[i] = i%3 == 0
	}
	done := make(chan error)

	sPipe, rPipe := transport.Pipe()

	go func(pipe *transport.Conn) {
		err := receiver.InitReceiver(pipe)
		if err == nil {
			err = receiver.Receive(flags, labels)
		}
		if err != nil {
			pipe.Close()
			done <- err
			return
		}
		for i := 0; i < len(flags); i++ {
			expected := wires[i].L0
			if flags[i] {
				expected = wires[i].L1
			}
			if !labels[i].Equal(expected) {
				pipe.Close()
				done <- fmt.Errorf("label %d mismatch %v %v", i,
					labels[i], wires[i])
				return
			}
		}
		done <- nil
	}(rPipe)

	err := sender.InitSender(sPipe)
	if err != nil {
		t.Fatalf("InitSender: %v", err)
	}
	err = sender.Send(wires)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	err = <-done
	if err != nil {
		t.Errorf("receiver failed: %v", err)
	}
}

func TestOTCO(t *testing.T) {
	for _, size := range []int{1, 64, 1000, 2000, 8000} {
		testOT(NewCO(rand.Reader), NewCO(rand.Reader), size, t)
	}
}

func TestOTCOCountMismatch(t *testing.T) {
	sPipe, rPipe := transport.Pipe()
	sender := NewCO(rand.Reader)
	receiver := NewCO(rand.Reader)

	done := make(chan error)
	go func() {
		err := receiver.InitReceiver(rPipe)
		if err == nil {
			err = receiver.Receive(make([]bool, 3), make([]Label, 3))
		}
		done <- err
	}()

	if err := sender.InitSender(sPipe); err != nil {
		t.Fatal(err)
	}
	if err := sender.Send(newWires(4, t)); err == nil {
		t.Fatal("Send succeeded with mismatched counts")
	}
	if err := <-done; err == nil {
		t.Fatal("Receive succeeded with mismatched counts")
	}
}

func TestOTCOInvalidPoint(t *testing.T) {
	sPipe, rPipe := transport.Pipe()
	receiver := NewCO(rand.Reader)

	go func() {
		SendString(sPipe, "P-256")
		bad := make([]byte, 33)
		bad[0] = 2
		for i := 1; i < len(bad); i++ {
			bad[i] = 0xff
		}
		sPipe.SendData(bad)
		sPipe.SendUint32(1)
		sPipe.Flush()
	}()

	if err := receiver.InitReceiver(rPipe); err != nil {
		t.Fatal(err)
	}
	err := receiver.Receive([]bool{true}, make([]Label, 1))
	if err != ErrInvalidPoint {
		t.Fatalf("Receive=%v, expected %v", err, ErrInvalidPoint)
	}
}

func BenchmarkOTCO_1000(b *testing.B) {
	wires := newWires(1000, b)
	flags := make([]bool, len(wires))
	labels := make([]Label, len(wires))
	sPipe, rPipe := transport.Pipe()
	sender := NewCO(rand.Reader)
	receiver := NewCO(rand.Reader)

	done := make(chan error)
	go func() {
		err := receiver.InitReceiver(rPipe)
		for i := 0; err == nil && i < b.N; i++ {
			err = receiver.Receive(flags, labels)
		}
		done <- err
	}()

	if err := sender.InitSender(sPipe); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := sender.Send(wires); err != nil {
			b.Fatal(err)
		}
	}
	if err := <-done; err != nil {
		b.Fatal(err)
	}
}
