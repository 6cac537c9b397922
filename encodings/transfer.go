//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package encodings

import (
	"fmt"

	"github.com/maceip/tlsn-authdecode-wasm/ot"
)

// labelBits is the maximum bit length of an encoding transferred with
// oblivious transfer.
const labelBits = 128

// Wires converts the full encodings into OT wires. All encodings must
// fit into 128 bits.
func (f *FullEncodings) Wires() ([]ot.Wire, error) {
	wires := make([]ot.Wire, len(f.pairs))
	var buf ot.LabelData
	for i, pair := range f.pairs {
		for j, enc := range pair {
			if enc.v.BitLen() > labelBits {
				return nil, fmt.Errorf("%w: pair %d element %d exceeds %d bits",
					ErrInvalidEncoding, i, j, labelBits)
			}
			enc.v.FillBytes(buf[:])
			var err error
			if j == 0 {
				err = wires[i].L0.SetBytes(buf[:])
			} else {
				err = wires[i].L1.SetBytes(buf[:])
			}
			if err != nil {
				return nil, err
			}
		}
	}
	return wires, nil
}

// SendFull transfers the full encodings with the OT sender. The
// receiver learns only the encodings its bits select.
func SendFull(sender ot.OT, full *FullEncodings) error {
	wires, err := full.Wires()
	if err != nil {
		return err
	}
	return sender.Send(wires)
}

// ReceiveActive receives the active encodings of the bits with the OT
// receiver.
func ReceiveActive(receiver ot.OT, bits []bool) (*ActiveEncodings, error) {
	if len(bits) == 0 {
		return nil, ErrInvalidLength
	}
	labels := make([]ot.Label, len(bits))
	if err := receiver.Receive(bits, labels); err != nil {
		return nil, err
	}
	return FromLabels(labels)
}
