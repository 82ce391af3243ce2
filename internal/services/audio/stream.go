package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/djherbis/buffer"
	"github.com/djherbis/nio/v3"
)

var (
	// ErrStreamClosed is returned when a stream was closed before use
	ErrStreamClosed = errors.New("stream already closed")
	// ErrNoData is returned when a stream produced nothing before its deadline
	ErrNoData = errors.New("stream produced no data")
)

// Format describes the bytes a stream carries
type Format int

const (
	// FormatPCM is signed 16-bit little endian, 48kHz, stereo
	FormatPCM Format = iota
	// FormatEncoded is a container ffmpeg can probe (webm/opus, m4a)
	FormatEncoded
)

func (f Format) String() string {
	if f == FormatPCM {
		return "pcm"
	}
	return "encoded"
}

// Stream is a live audio byte stream obtained by a strategy
type Stream struct {
	Format   Format
	Strategy string

	body   io.Reader
	closer func() error

	closeOnce sync.Once
	closed    atomic.Bool
	closeErr  error
}

// NewStream wraps body. Closing the stream closes body.
func NewStream(body io.ReadCloser, format Format, strategy string) *Stream {
	return &Stream{
		Format:   format,
		Strategy: strategy,
		body:     body,
		closer:   body.Close,
	}
}

func (s *Stream) Read(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrStreamClosed
	}
	return s.body.Read(p)
}

// Close releases the stream and whatever produces it. Safe to call more than once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		if s.closer != nil {
			s.closeErr = s.closer()
		}
	})
	return s.closeErr
}

// Closed reports whether Close was called
func (s *Stream) Closed() bool {
	return s.closed.Load()
}

// Readable reports whether the stream has a live body
func (s *Stream) Readable() bool {
	return s != nil && s.body != nil && !s.closed.Load()
}

func validateStream(s *Stream) error {
	if s == nil || s.body == nil {
		return errors.New("strategy returned no stream")
	}
	if s.Closed() {
		return ErrStreamClosed
	}
	return nil
}

type firstRead struct {
	n   int
	err error
}

// awaitFirstData blocks until the stream yields its first bytes.
// On timeout or cancellation the stream is closed, which stops its producer.
func awaitFirstData(ctx context.Context, s *Stream, timeout time.Duration) error {
	head := make([]byte, 32*1024)
	done := make(chan firstRead, 1)

	go func() {
		n, err := s.body.Read(head)
		done <- firstRead{n, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		if r.n == 0 {
			s.Close()
			if r.err == nil || errors.Is(r.err, io.EOF) {
				return ErrNoData
			}
			return fmt.Errorf("%w: %v", ErrNoData, r.err)
		}
		s.body = io.MultiReader(bytes.NewReader(head[:r.n]), s.body)
		return nil
	case <-timer.C:
		s.Close()
		return fmt.Errorf("%w within %s", ErrNoData, timeout)
	case <-ctx.Done():
		s.Close()
		return ctx.Err()
	}
}

// bufferedPipe copies src into a bounded in-memory pipe. The copy blocks once
// size bytes are waiting, so a slow consumer throttles the producer.
// done runs after the copy ends, with the copy error.
func bufferedPipe(src io.Reader, size int64, done func(error)) *nio.PipeReader {
	r, w := nio.Pipe(buffer.New(size))

	go func() {
		_, err := io.Copy(w, src)
		if done != nil {
			done(err)
		}
		if err == nil {
			err = io.EOF
		}
		w.CloseWithError(err)
	}()

	return r
}
