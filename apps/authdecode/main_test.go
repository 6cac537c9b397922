//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"bytes"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maceip/tlsn-authdecode-wasm/backend/mock"
	"github.com/maceip/tlsn-authdecode-wasm/prg"
)

func testConfig(out *bytes.Buffer) *config {
	return &config{
		size:      1000,
		seed:      prg.Seed{7},
		initLen:   100,
		initValue: 1,
		backend:   "mock",
		chunkSize: mock.DefaultChunkSize,
		out:       out,
		rand:      rand.Reader,
	}
}

func TestRunMock(t *testing.T) {
	var out bytes.Buffer
	cfg := testConfig(&out)
	cfg.metrics = true

	accepted, err := run(cfg)
	require.NoError(t, err)
	require.True(t, accepted)

	report := out.String()
	require.Contains(t, report, "Result: accepted")
	for _, label := range []string{"Setup", "OT", "Commit", "Check",
		"Prove", "Verify", "Total"} {
		require.Contains(t, report, label)
	}
	require.Contains(t, report, "authdecode_phase_total")
	require.True(t, strings.Contains(report,
		`authdecode_phase_total{phase="verify",result="ok",role="verifier"} 1`),
		"verify counter missing:\n%s", report)
}

func TestRunPinned(t *testing.T) {
	var out bytes.Buffer
	cfg := testConfig(&out)
	cfg.pin = true

	accepted, err := run(cfg)
	require.NoError(t, err)
	require.True(t, accepted)
}

func TestRunInvalidConfig(t *testing.T) {
	var out bytes.Buffer

	cfg := testConfig(&out)
	cfg.backend = "plonk"
	_, err := run(cfg)
	require.ErrorContains(t, err, "unknown backend")

	cfg = testConfig(&out)
	cfg.size = 0
	_, err = run(cfg)
	require.Error(t, err)

	cfg = testConfig(&out)
	cfg.chunkSize = 0
	_, err = run(cfg)
	require.Error(t, err)
}

func TestRunGroth16(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping Groth16 session in short mode")
	}
	var out bytes.Buffer
	cfg := testConfig(&out)
	cfg.backend = "groth16"
	cfg.chunkSize = 62
	cfg.keys = t.TempDir()

	accepted, err := run(cfg)
	require.NoError(t, err)
	require.True(t, accepted)
}
