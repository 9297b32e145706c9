package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/dkeye/Ludo/internal/domain"
)

const DefaultFrameLimit = 4096

// ErrFrameTooLong is returned for a line longer than the reader limit. The
// rest of the line has been discarded, so the next call starts on a fresh frame.
var ErrFrameTooLong = fmt.Errorf("frame too long: %w", domain.ErrMalformedFrame)

// FrameReader splits a stream into newline-terminated frames.
type FrameReader struct {
	r *bufio.Reader
}

func NewFrameReader(r io.Reader, limit int) *FrameReader {
	if limit <= 0 {
		limit = DefaultFrameLimit
	}
	return &FrameReader{r: bufio.NewReaderSize(r, limit)}
}

// Next returns the next non-blank frame without its line terminator. The
// returned slice is owned by the caller.
func (fr *FrameReader) Next() ([]byte, error) {
	for {
		line, err := fr.r.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			if derr := fr.discardLine(); derr != nil && !errors.Is(derr, io.EOF) {
				return nil, derr
			}
			return nil, ErrFrameTooLong
		}
		frame := bytes.TrimSpace(line)
		if len(frame) > 0 {
			return append([]byte(nil), frame...), nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (fr *FrameReader) discardLine() error {
	for {
		_, err := fr.r.ReadSlice('\n')
		if !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
	}
}
