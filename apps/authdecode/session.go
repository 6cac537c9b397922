//
// session.go
//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"bytes"
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/maceip/tlsn-authdecode-wasm/authdecode"
	"github.com/maceip/tlsn-authdecode-wasm/encodings"
	"github.com/maceip/tlsn-authdecode-wasm/logging"
	"github.com/maceip/tlsn-authdecode-wasm/metrics"
	"github.com/maceip/tlsn-authdecode-wasm/ot"
	"github.com/maceip/tlsn-authdecode-wasm/prg"
	"github.com/maceip/tlsn-authdecode-wasm/prover"
	"github.com/maceip/tlsn-authdecode-wasm/timing"
	"github.com/maceip/tlsn-authdecode-wasm/transport"
	"github.com/maceip/tlsn-authdecode-wasm/verifier"
	"github.com/maceip/tlsn-authdecode-wasm/wire"
)

type environment struct {
	cfg     *config
	logger  logging.Logger
	metrics *metrics.Metrics
}

type result struct {
	accepted bool
	reason   string
	timing   *timing.Timing
}

// generate derives the plaintext and the full encodings from the seed.
func generate(seed prg.Seed, size int) ([]byte, *encodings.FullEncodings,
	error) {

	rand := prg.New(seed)
	plaintext := make([]byte, size)
	if _, err := rand.Read(plaintext); err != nil {
		return nil, nil, err
	}
	full, err := encodings.Random(rand, size*8)
	if err != nil {
		return nil, nil, err
	}
	return plaintext, full, nil
}

func (env *environment) session() (*result, error) {
	cfg := env.cfg
	ctx := context.Background()

	pconn, vconn := transport.Pipe()
	t := timing.New(pconn.Stats)

	pb, vb, err := backends(cfg)
	if err != nil {
		return nil, err
	}
	plaintext, full, err := generate(cfg.seed, cfg.size)
	if err != nil {
		return nil, err
	}
	initData := authdecode.InitData(bytes.Repeat([]byte{cfg.initValue},
		cfg.initLen))
	t.Phase("Setup " + cfg.backend)

	var g errgroup.Group
	g.Go(func() error {
		err := env.verifier(ctx, vconn, vb, full)
		if err != nil {
			vconn.Abort()
		}
		return err
	})

	var ev prover.EncodingVerifier = prover.AcceptAll{}
	if cfg.pin {
		ev = prover.NewDigestVerifier(prover.PinDigest(initData, full))
	}
	res, err := env.prover(ctx, t, pconn, pb, plaintext, initData, ev)
	if err != nil {
		pconn.Abort()
	}
	if vErr := g.Wait(); err == nil {
		err = vErr
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (env *environment) prover(ctx context.Context, t *timing.Timing,
	conn *transport.Conn, backend authdecode.ProverBackend, plaintext []byte,
	initData authdecode.InitData, ev prover.EncodingVerifier) (
	*result, error) {

	cfg := env.cfg

	// Oblivious transfer of the active encodings.
	receiver := ot.NewCO(cfg.rand)
	if err := receiver.InitReceiver(conn); err != nil {
		return nil, err
	}
	active, err := encodings.ReceiveActive(receiver,
		encodings.BytesToBits(plaintext))
	if err != nil {
		return nil, err
	}
	t.Phase("OT")

	initial := prover.New(backend, prover.WithLogger(env.logger),
		prover.WithMetrics(env.metrics))
	committed, commitments, err := initial.Commit(ctx, cfg.rand,
		[]prover.Input{{
			Plaintext: plaintext,
			Encodings: active,
		}})
	if err != nil {
		return nil, err
	}
	if err := conn.SendData(wire.EncodeCommitments(commitments)); err != nil {
		return nil, err
	}
	if err := conn.SendData(initData); err != nil {
		return nil, err
	}
	if err := conn.Flush(); err != nil {
		return nil, err
	}
	t.Phase("Commit")

	data, err := conn.ReceiveData()
	if err != nil {
		return nil, err
	}
	vd, err := wire.DecodeVerificationData(data)
	if err != nil {
		return nil, err
	}
	checked, err := committed.Check(ctx, vd, ev)
	if err != nil {
		return nil, err
	}
	t.Phase("Check")

	_, proofSets, err := checked.Prove(ctx)
	if err != nil {
		return nil, err
	}
	if err := conn.SendData(wire.EncodeProofSets(proofSets)); err != nil {
		return nil, err
	}
	if err := conn.Flush(); err != nil {
		return nil, err
	}
	t.Phase("Prove")

	res := &result{
		timing: t,
	}
	status, err := conn.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	res.accepted = status == 1
	if !res.accepted {
		res.reason, err = ot.ReceiveString(conn)
		if err != nil {
			return nil, err
		}
	}
	t.Phase("Verify")

	return res, nil
}

func (env *environment) verifier(ctx context.Context, conn *transport.Conn,
	backend authdecode.VerifierBackend, full *encodings.FullEncodings) error {

	sender := ot.NewCO(env.cfg.rand)
	if err := sender.InitSender(conn); err != nil {
		return err
	}
	if err := encodings.SendFull(sender, full); err != nil {
		return err
	}

	data, err := conn.ReceiveData()
	if err != nil {
		return err
	}
	commitments, err := wire.DecodeCommitments(data)
	if err != nil {
		return err
	}
	initData, err := conn.ReceiveData()
	if err != nil {
		return err
	}

	initial := verifier.New(backend, verifier.WithLogger(env.logger),
		verifier.WithMetrics(env.metrics))
	received, vd, err := initial.ReceiveCommitments(ctx, commitments,
		[]*encodings.FullEncodings{full}, initData)
	if err != nil {
		return err
	}
	if err := conn.SendData(wire.EncodeVerificationData(vd)); err != nil {
		return err
	}
	if err := conn.Flush(); err != nil {
		return err
	}

	data, err = conn.ReceiveData()
	if err != nil {
		return err
	}
	proofSets, err := wire.DecodeProofSets(data)
	if err != nil {
		return err
	}
	finished, err := received.Verify(ctx, proofSets)
	if err != nil {
		return err
	}
	if finished.Accepted() {
		err = conn.SendUint32(1)
	} else {
		err = conn.SendUint32(0)
		if err == nil {
			err = ot.SendString(conn, finished.Err().Error())
		}
	}
	if err != nil {
		return err
	}
	return conn.Flush()
}
