//
// Copyright (c) 2019-2025 Markku Rossi
//
// All rights reserved.
//

// Package transport implements the framed byte stream connecting the
// AuthDecode peers. The connection carries the oblivious transfer of
// the active encodings and the protocol messages.
package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
)

const (
	writeBufSize = 64 * 1024
	readBufSize  = 1024 * 1024

	// MaxDataSize limits the size of a single received data frame.
	MaxDataSize = 256 * 1024 * 1024
)

var (
	bo = binary.BigEndian

	// ErrTooLarge is returned when the peer announces a data frame
	// larger than MaxDataSize.
	ErrTooLarge = errors.New("transport: data frame too large")
)

// IOStats implements I/O statistics.
type IOStats struct {
	Sent    *atomic.Uint64
	Recvd   *atomic.Uint64
	Flushed *atomic.Uint64
}

// NewIOStats creates a new I/O statistics object.
func NewIOStats() IOStats {
	return IOStats{
		Sent:    new(atomic.Uint64),
		Recvd:   new(atomic.Uint64),
		Flushed: new(atomic.Uint64),
	}
}

// Add adds the argument stats to this IOStats and returns the sum.
func (stats IOStats) Add(o IOStats) IOStats {
	result := NewIOStats()
	result.Sent.Store(stats.Sent.Load() + o.Sent.Load())
	result.Recvd.Store(stats.Recvd.Load() + o.Recvd.Load())
	result.Flushed.Store(stats.Flushed.Load() + o.Flushed.Load())
	return result
}

// Sum returns sum of sent and received bytes.
func (stats IOStats) Sum() uint64 {
	return stats.Sent.Load() + stats.Recvd.Load()
}

// Conn implements a framed connection. All values are sent in the
// big-endian byte order and data values are prefixed with their
// uint32 length. Conn is not safe for concurrent use.
type Conn struct {
	conn      io.ReadWriter
	writeBuf  []byte
	writePos  int
	readBuf   []byte
	readStart int
	readEnd   int
	Stats     IOStats
}

// NewConn creates a new connection around the argument connection.
func NewConn(conn io.ReadWriter) *Conn {
	return &Conn{
		conn:     conn,
		writeBuf: make([]byte, writeBufSize),
		readBuf:  make([]byte, readBufSize),
		Stats:    NewIOStats(),
	}
}

func (c *Conn) write(data []byte) error {
	_, err := c.conn.Write(data)
	if err != nil {
		return err
	}
	c.Stats.Sent.Add(uint64(len(data)))
	return nil
}

// Flush flushes any pending data in the connection.
func (c *Conn) Flush() error {
	if c.writePos > 0 {
		if err := c.write(c.writeBuf[:c.writePos]); err != nil {
			return err
		}
		c.writePos = 0
		c.Stats.Flushed.Add(1)
	}
	return nil
}

// needSpace ensures the write buffer has space for count bytes. The
// function flushes the output if needed.
func (c *Conn) needSpace(count int) error {
	if c.writePos+count > len(c.writeBuf) {
		return c.Flush()
	}
	return nil
}

// fill fills the input buffer so that it holds at least n unread
// bytes. Any unused data in the buffer is moved to the beginning of
// the buffer.
func (c *Conn) fill(n int) error {
	if c.readStart < c.readEnd {
		copy(c.readBuf[0:], c.readBuf[c.readStart:c.readEnd])
		c.readEnd -= c.readStart
		c.readStart = 0
	} else {
		c.readStart = 0
		c.readEnd = 0
	}
	for c.readStart+n > c.readEnd {
		got, err := c.conn.Read(c.readBuf[c.readEnd:])
		if got > 0 {
			c.Stats.Recvd.Add(uint64(got))
			c.readEnd += got
		}
		if err != nil {
			if c.readStart+n <= c.readEnd {
				break
			}
			if err == io.EOF && c.readEnd > 0 {
				return io.ErrUnexpectedEOF
			}
			return err
		}
	}
	return nil
}

// Close flushes any pending data and closes the connection.
func (c *Conn) Close() error {
	if err := c.Flush(); err != nil {
		return err
	}
	closer, ok := c.conn.(io.Closer)
	if ok {
		return closer.Close()
	}
	return nil
}

// Abort closes the underlying connection without flushing pending
// data. Blocked peers see the connection closed.
func (c *Conn) Abort() error {
	c.writePos = 0
	closer, ok := c.conn.(io.Closer)
	if ok {
		return closer.Close()
	}
	return nil
}

// SendUint32 sends an uint32 value.
func (c *Conn) SendUint32(val int) error {
	if err := c.needSpace(4); err != nil {
		return err
	}
	bo.PutUint32(c.writeBuf[c.writePos:], uint32(val))
	c.writePos += 4
	return nil
}

// SendData sends binary data. Data that does not fit into the write
// buffer is written directly to the underlying connection.
func (c *Conn) SendData(val []byte) error {
	if len(val) > MaxDataSize {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, len(val))
	}
	if err := c.needSpace(4 + len(val)); err != nil {
		return err
	}
	if err := c.SendUint32(len(val)); err != nil {
		return err
	}
	if c.writePos+len(val) > len(c.writeBuf) {
		if err := c.Flush(); err != nil {
			return err
		}
		return c.write(val)
	}
	copy(c.writeBuf[c.writePos:], val)
	c.writePos += len(val)
	return nil
}

// SendString sends a string value.
func (c *Conn) SendString(val string) error {
	return c.SendData([]byte(val))
}

// ReceiveUint32 receives an uint32 value.
func (c *Conn) ReceiveUint32() (int, error) {
	if c.readStart+4 > c.readEnd {
		if err := c.fill(4); err != nil {
			return 0, err
		}
	}
	val := bo.Uint32(c.readBuf[c.readStart:])
	c.readStart += 4

	return int(val), nil
}

// ReceiveData receives binary data. The returned slice is owned by
// the caller.
func (c *Conn) ReceiveData() ([]byte, error) {
	l, err := c.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	if l > MaxDataSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, l)
	}
	result := make([]byte, l)

	if l > len(c.readBuf) {
		n := copy(result, c.readBuf[c.readStart:c.readEnd])
		c.readStart += n
		got, err := io.ReadFull(c.conn, result[n:])
		c.Stats.Recvd.Add(uint64(got))
		if err != nil {
			return nil, err
		}
		return result, nil
	}

	if c.readStart+l > c.readEnd {
		if err := c.fill(l); err != nil {
			return nil, err
		}
	}
	copy(result, c.readBuf[c.readStart:c.readStart+l])
	c.readStart += l

	return result, nil
}

// ReceiveString receives a string value.
func (c *Conn) ReceiveString() (string, error) {
	data, err := c.ReceiveData()
	if err != nil {
		return "", err
	}
	return string(data), nil
}
