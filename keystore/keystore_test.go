//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

package keystore

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type blob struct {
	data []byte
}

func (b *blob) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.data)
	return int64(n), err
}

func (b *blob) ReadFrom(r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	b.data = data
	return int64(len(data)), err
}

var errDecode = errors.New("decode failed")

type failing struct{}

func (failing) ReadFrom(r io.Reader) (int64, error) {
	return 0, errDecode
}

func TestStore(t *testing.T) {
	path := t.TempDir()

	s, err := Open(path)
	require.NoError(t, err)

	var b blob
	ok, err := s.Load("pk", &b)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Save("pk", &blob{data: []byte("proving key")}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	ok, err = s.Load("pk", &b)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, bytes.Equal(b.data, []byte("proving key")))

	_, err = s.Load("pk", failing{})
	require.ErrorIs(t, err, errDecode)

	require.NoError(t, s.Delete("pk"))
	ok, err = s.Load("pk", &b)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOpenMem(t *testing.T) {
	s, err := OpenMem()
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save("vk", &blob{data: []byte{1, 2, 3}}))
	var b blob
	ok, err := s.Load("vk", &b)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3}, b.data)
}
