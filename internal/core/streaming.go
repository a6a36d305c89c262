package core

// streaming.go cleans a resource stream before it reaches the CSV reader:
//
//   - BOM stripping: spreadsheet exports on Windows prefix 0xEF 0xBB 0xBF
//   - UTF-8 sanitizing: invalid bytes become '?' so encoding/csv never
//     sees broken runes inside a reason cell
//   - Counting and capping: the loader records bytes read and refuses
//     resources above the configured size
//
// WrapForParsing applies all three in the right order.

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"unicode/utf8"
)

// ErrResourceTooLarge is returned by a LimitedCountingReader once its cap is exceeded.
var ErrResourceTooLarge = errors.New("resource too large")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// StripBOM returns a reader positioned after a leading UTF-8 BOM, if any.
func StripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// UTF8Sanitizer replaces invalid UTF-8 bytes with '?' while streaming.
// A multi-byte rune split across two reads is carried over, never mangled.
type UTF8Sanitizer struct {
	r       io.Reader
	carry   [utf8.UTFMax]byte
	ncarry  int
	pending []byte // sanitized output not yet handed to the caller
	err     error
}

// NewUTF8Sanitizer wraps r.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{r: r}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	for len(s.pending) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		s.fill(len(p))
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *UTF8Sanitizer) fill(size int) {
	if size < 512 {
		size = 512
	}
	buf := make([]byte, s.ncarry+size)
	copy(buf, s.carry[:s.ncarry])
	n, err := s.r.Read(buf[s.ncarry:])
	data := buf[:s.ncarry+n]
	s.ncarry = 0
	s.err = err
	atEOF := err != nil

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); {
		if data[i] < utf8.RuneSelf {
			out = append(out, data[i])
			i++
			continue
		}
		if !atEOF && !utf8.FullRune(data[i:]) {
			s.ncarry = copy(s.carry[:], data[i:])
			break
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			out = append(out, '?')
		} else {
			out = append(out, data[i:i+size]...)
		}
		i += size
	}
	s.pending = out
}

// LimitedCountingReader counts bytes read and fails with
// ErrResourceTooLarge past Max bytes. Max <= 0 disables the cap.
type LimitedCountingReader struct {
	r         io.Reader
	Max       int64
	BytesRead int64
}

// Read implements io.Reader.
func (c *LimitedCountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.BytesRead += int64(n)
	if c.Max > 0 && c.BytesRead > c.Max {
		return n, ErrResourceTooLarge
	}
	return n, err
}

// WrapForParsing strips the BOM, sanitizes UTF-8 and counts bytes.
// Counting wraps the raw stream so BytesRead matches the resource size.
func WrapForParsing(r io.Reader, max int64) (io.Reader, *LimitedCountingReader) {
	counter := &LimitedCountingReader{r: r, Max: max}
	return NewUTF8Sanitizer(StripBOM(counter)), counter
}
