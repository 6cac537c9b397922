//
// main.go
//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// The authdecode command runs an AuthDecode session between a Prover
// and a Verifier connected with an in-memory pipe. The Verifier
// transfers the active encodings of the plaintext to the Prover with
// oblivious transfer, and the Prover then proves that it knows the
// plaintext that the encodings encode.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/maceip/tlsn-authdecode-wasm/authdecode"
	"github.com/maceip/tlsn-authdecode-wasm/backend/groth16"
	"github.com/maceip/tlsn-authdecode-wasm/backend/mock"
	"github.com/maceip/tlsn-authdecode-wasm/keystore"
	"github.com/maceip/tlsn-authdecode-wasm/logging"
	"github.com/maceip/tlsn-authdecode-wasm/metrics"
	"github.com/maceip/tlsn-authdecode-wasm/prg"
)

type config struct {
	size      int
	seed      prg.Seed
	initLen   int
	initValue byte
	backend   string
	chunkSize int
	keys      string
	pin       bool
	verbose   bool
	metrics   bool
	out       io.Writer
	rand      io.Reader
}

func main() {
	size := flag.Int("size", 1000, "Plaintext size in bytes")
	seed := flag.String("seed", "", "Hex encoded PRG seed for plaintext and encodings")
	initLen := flag.Int("init-len", 100, "InitData length")
	initValue := flag.Uint("init-value", 1, "InitData byte value")
	backend := flag.String("backend", "groth16", "Proof backend: groth16, mock")
	chunkSize := flag.Int("chunk", groth16.DefaultChunkSize, "Chunk size in bytes")
	keys := flag.String("keys", "", "Key store directory (default in-memory)")
	pin := flag.Bool("pin", false, "Pin full encodings digest")
	verbose := flag.Bool("v", false, "Verbose output")
	fMetrics := flag.Bool("metrics", false, "Print metrics")
	flag.Parse()

	log.SetFlags(0)

	cfg := &config{
		size:      *size,
		initLen:   *initLen,
		initValue: byte(*initValue),
		backend:   *backend,
		chunkSize: *chunkSize,
		keys:      *keys,
		pin:       *pin,
		verbose:   *verbose,
		metrics:   *fMetrics,
		out:       os.Stdout,
		rand:      rand.Reader,
	}
	if len(*seed) > 0 {
		data, err := hex.DecodeString(*seed)
		if err != nil {
			log.Fatalf("invalid seed: %s", err)
		}
		if len(data) > len(cfg.seed) {
			log.Fatalf("seed too long: %d bytes, max %d", len(data),
				len(cfg.seed))
		}
		copy(cfg.seed[:], data)
	}

	accepted, err := run(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if !accepted {
		os.Exit(1)
	}
}

func run(cfg *config) (bool, error) {
	if cfg.size <= 0 {
		return false, fmt.Errorf("invalid plaintext size %d", cfg.size)
	}
	if cfg.initLen < 0 {
		return false, fmt.Errorf("invalid InitData length %d", cfg.initLen)
	}

	logger, err := logging.Development(cfg.verbose)
	if err != nil {
		return false, err
	}

	reg := prometheus.NewRegistry()
	m := metrics.New("authdecode")
	if err := m.Register(reg); err != nil {
		return false, err
	}

	env := &environment{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
	}
	result, err := env.session()
	if err != nil {
		return false, err
	}

	if result.accepted {
		fmt.Fprintf(cfg.out, "Result: %s\n", authdecode.PhaseAccepted)
	} else {
		fmt.Fprintf(cfg.out, "Result: %s: %s\n", authdecode.PhaseRejected,
			result.reason)
	}
	result.timing.Print(cfg.out)

	if cfg.metrics {
		families, err := reg.Gather()
		if err != nil {
			return false, err
		}
		for _, mf := range families {
			if _, err := expfmt.MetricFamilyToText(cfg.out, mf); err != nil {
				return false, err
			}
		}
	}
	return result.accepted, nil
}

// backends creates the Prover and Verifier backends of the
// configuration.
func backends(cfg *config) (authdecode.ProverBackend,
	authdecode.VerifierBackend, error) {

	switch cfg.backend {
	case "mock":
		b, err := mock.New(cfg.chunkSize)
		if err != nil {
			return nil, nil, err
		}
		return b, b, nil

	case "groth16":
		var store *keystore.Store
		var err error
		if len(cfg.keys) > 0 {
			store, err = keystore.Open(cfg.keys)
		} else {
			store, err = keystore.OpenMem()
		}
		if err != nil {
			return nil, nil, err
		}
		defer store.Close()

		pk, vk, created, err := groth16.LoadOrSetup(store, cfg.chunkSize)
		if err != nil {
			return nil, nil, err
		}
		if cfg.verbose {
			if created {
				fmt.Fprintf(cfg.out, " - Created keys for chunk size %d\n",
					cfg.chunkSize)
			} else {
				fmt.Fprintf(cfg.out, " - Loaded keys for chunk size %d\n",
					cfg.chunkSize)
			}
		}
		return groth16.NewProver(pk), groth16.NewVerifier(vk), nil

	default:
		return nil, nil, errors.New("unknown backend: " + cfg.backend)
	}
}
