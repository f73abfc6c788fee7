// Package stream writes an unbounded sequence of little-endian 32-bit values
// for external test suites such as PractRand (RNG_test stdin32).
package stream

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"syscall"
	"time"

	"github.com/standardbeagle/chi32/internal/debug"
)

const (
	valueSize         = 4
	DefaultBufferSize = 64 * 1024
)

// Source yields successive 32-bit values.
type Source interface {
	Next() uint32
}

// Result describes a finished stream.
type Result struct {
	Values     uint64        // values fully written to the sink
	Duration   time.Duration // wall time spent streaming
	BrokenPipe bool          // the consumer went away; this is a normal exit
}

// Emitter buffers values before handing them to the sink.
type Emitter struct {
	bufferSize int
}

// NewEmitter creates an emitter with a buffer of bufferSize bytes, rounded
// down to whole values. Sizes below one value use DefaultBufferSize.
func NewEmitter(bufferSize int) *Emitter {
	bufferSize -= bufferSize % valueSize
	if bufferSize < valueSize {
		bufferSize = DefaultBufferSize
	}
	return &Emitter{bufferSize: bufferSize}
}

// BufferSize returns the buffer size in bytes.
func (e *Emitter) BufferSize() int { return e.bufferSize }

// Run writes values from src to w until count values are written, ctx is
// done, or the consumer closes the pipe. A count of zero streams forever.
// A broken pipe is reported in Result and is not an error; cancellation
// returns ctx.Err() together with the partial result.
func (e *Emitter) Run(ctx context.Context, w io.Writer, src Source, count uint64) (Result, error) {
	start := time.Now()
	buf := make([]byte, e.bufferSize)
	var res Result

	for count == 0 || res.Values < count {
		if err := ctx.Err(); err != nil {
			res.Duration = time.Since(start)
			return res, err
		}

		n := len(buf) / valueSize
		if count != 0 && count-res.Values < uint64(n) {
			n = int(count - res.Values)
		}
		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint32(buf[i*valueSize:], src.Next())
		}

		written, err := w.Write(buf[:n*valueSize])
		res.Values += uint64(written / valueSize)
		if err != nil {
			res.Duration = time.Since(start)
			if IsBrokenPipe(err) {
				res.BrokenPipe = true
				debug.LogStream("consumer closed the pipe after %d values\n", res.Values)
				return res, nil
			}
			return res, fmt.Errorf("stream write failed after %d values: %w", res.Values, err)
		}
	}

	res.Duration = time.Since(start)
	debug.LogStream("wrote %d values in %s\n", res.Values, res.Duration)
	return res, nil
}

// IsBrokenPipe reports whether err means the reading side has gone away.
func IsBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe)
}
