//
// Copyright (c) 2020-2025 Markku Rossi
//
// All rights reserved.
//

// Package timing records the duration and the transferred bytes of
// protocol phases and renders them as a profiling report.
package timing

import (
	"fmt"
	"io"
	"time"

	"github.com/markkurossi/tabulate"

	"github.com/maceip/tlsn-authdecode-wasm/transport"
)

// FileSize is a byte count rendered with decimal units.
type FileSize uint64

func (s FileSize) String() string {
	switch {
	case s > 1000*1000*1000*1000:
		return fmt.Sprintf("%dTB", s/(1000*1000*1000*1000))
	case s > 1000*1000*1000:
		return fmt.Sprintf("%dGB", s/(1000*1000*1000))
	case s > 1000*1000:
		return fmt.Sprintf("%dMB", s/(1000*1000))
	case s > 1000:
		return fmt.Sprintf("%dkB", s/1000)
	default:
		return fmt.Sprintf("%dB", s)
	}
}

// Timing records consecutive protocol phases of one connection.
type Timing struct {
	Start  time.Time
	Phases []*Phase

	stats transport.IOStats
	last  time.Time
	xfer  uint64
}

// Phase holds the measurements of one protocol phase.
type Phase struct {
	Label    string
	Duration time.Duration
	Xfer     uint64
	Steps    []Step
}

// Step is a named part of a phase.
type Step struct {
	Label    string
	Duration time.Duration
}

// New starts timing the phases of the connection with the I/O
// statistics.
func New(stats transport.IOStats) *Timing {
	now := time.Now()
	return &Timing{
		Start: now,
		stats: stats,
		last:  now,
		xfer:  stats.Sum(),
	}
}

// Phase ends the current phase. The phase covers the time and the
// bytes transferred since the end of the previous phase.
func (t *Timing) Phase(label string) *Phase {
	now := time.Now()
	xfer := t.stats.Sum()

	phase := &Phase{
		Label:    label,
		Duration: now.Sub(t.last),
		Xfer:     xfer - t.xfer,
	}
	t.last = now
	t.xfer = xfer
	t.Phases = append(t.Phases, phase)

	return phase
}

// Step adds a named step to the phase.
func (p *Phase) Step(label string, d time.Duration) {
	p.Steps = append(p.Steps, Step{
		Label:    label,
		Duration: d,
	})
}

// Total returns the duration from the start to the end of the last
// phase.
func (t *Timing) Total() time.Duration {
	return t.last.Sub(t.Start)
}

// Print renders the report to w. Nothing is printed before the first
// phase ends.
func (t *Timing) Print(w io.Writer) {
	if len(t.Phases) == 0 {
		return
	}
	total := t.Total()

	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Phase").SetAlign(tabulate.ML)
	tab.Header("Time").SetAlign(tabulate.MR)
	tab.Header("%").SetAlign(tabulate.MR)
	tab.Header("Xfer").SetAlign(tabulate.MR)

	for _, phase := range t.Phases {
		row := tab.Row()
		row.Column(phase.Label)
		row.Column(phase.Duration.String())
		row.Column(percent(uint64(phase.Duration), uint64(total)))
		row.Column(FileSize(phase.Xfer).String())

		for idx, step := range phase.Steps {
			row := tab.Row()
			row.Column(treePrefix(idx, len(phase.Steps)) + step.Label).
				SetFormat(tabulate.FmtItalic)
			row.Column(step.Duration.String()).SetFormat(tabulate.FmtItalic)
			row.Column(percent(uint64(step.Duration),
				uint64(phase.Duration))).SetFormat(tabulate.FmtItalic)
			row.Column("")
		}
	}

	sent := t.stats.Sent.Load()
	received := t.stats.Recvd.Load()

	row := tab.Row()
	row.Column("Total").SetFormat(tabulate.FmtBold)
	row.Column(total.String()).SetFormat(tabulate.FmtBold)
	row.Column("")
	row.Column(FileSize(sent + received).String()).SetFormat(tabulate.FmtBold)

	xfers := []struct {
		label string
		value string
		share string
	}{
		{"Sent", FileSize(sent).String(), percent(sent, sent+received)},
		{"Rcvd", FileSize(received).String(), percent(received, sent+received)},
		{"Flcd", fmt.Sprintf("%d", t.stats.Flushed.Load()), ""},
	}
	for idx, x := range xfers {
		row := tab.Row()
		row.Column(treePrefix(idx, len(xfers)) + x.label).
			SetFormat(tabulate.FmtItalic)
		row.Column("")
		row.Column(x.share).SetFormat(tabulate.FmtItalic)
		row.Column(x.value).SetFormat(tabulate.FmtItalic)
	}

	tab.Print(w)
}

func treePrefix(idx, count int) string {
	if idx+1 >= count {
		return "╰╴"
	}
	return "├╴"
}

func percent(part, total uint64) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", float64(part)/float64(total)*100)
}
