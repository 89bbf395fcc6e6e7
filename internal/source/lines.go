package source

import (
	"bufio"
	"errors"
	"io"
)

// lineReader splits a log into lines. A line longer than maxLineSize is
// dropped and flagged as oversized, and reading resumes at the next line.
type lineReader struct {
	br        *bufio.Reader
	buf       []byte
	oversized bool
	err       error
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{br: bufio.NewReaderSize(r, 256*1024)}
}

// Scan advances to the next line, oversized or not. It returns false at end
// of input or on a read error.
func (l *lineReader) Scan() bool {
	l.buf = l.buf[:0]
	l.oversized = false
	for {
		chunk, err := l.br.ReadSlice('\n')
		if !l.oversized {
			if len(l.buf)+len(chunk) > maxLineSize {
				l.oversized = true
				l.buf = l.buf[:0]
			} else {
				l.buf = append(l.buf, chunk...)
			}
		}

		switch {
		case err == nil:
			return true
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			return len(l.buf) > 0 || l.oversized
		default:
			l.err = err
			return false
		}
	}
}

// Bytes returns the current line. It is empty for an oversized line and is
// overwritten by the next Scan.
func (l *lineReader) Bytes() []byte { return l.buf }

// Oversized reports whether the current line exceeded maxLineSize.
func (l *lineReader) Oversized() bool { return l.oversized }

func (l *lineReader) Err() error { return l.err }
