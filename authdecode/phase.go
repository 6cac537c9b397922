//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package authdecode

import (
	"fmt"
)

// Phase identifies a state of the Prover or the Verifier.
type Phase int

// Protocol phases.
const (
	PhaseInitial Phase = iota
	PhaseCommitted
	PhaseChecked
	PhaseProved
	PhaseCommitmentsReceived
	PhaseAccepted
	PhaseRejected
)

var phaseNames = map[Phase]string{
	PhaseInitial:             "initial",
	PhaseCommitted:           "committed",
	PhaseChecked:             "checked",
	PhaseProved:              "proved",
	PhaseCommitmentsReceived: "commitments-received",
	PhaseAccepted:            "accepted",
	PhaseRejected:            "rejected",
}

func (p Phase) String() string {
	name, ok := phaseNames[p]
	if ok {
		return name
	}
	return fmt.Sprintf("{Phase %d}", p)
}

// Terminal tests if the phase has no further transitions.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseProved, PhaseAccepted, PhaseRejected:
		return true
	default:
		return false
	}
}
