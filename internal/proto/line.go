package proto

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	// MaxLineSize bounds a single input record. Output records are not bounded.
	MaxLineSize    = 256 << 20
	TypeSniffBytes = 512
)

var (
	ErrLineTooLong = errors.New("line too long")
	ErrShortWrite  = errors.New("short write")
)

// LineReader yields one JSON record per input line.
type LineReader struct {
	br   *bufio.Reader
	buf  []byte
	max  int
	line int
}

func NewLineReader(r io.Reader) *LineReader {
	return NewLineReaderSize(r, MaxLineSize)
}

// NewLineReaderSize is NewLineReader with a custom record limit.
func NewLineReaderSize(r io.Reader, max int) *LineReader {
	return &LineReader{br: bufio.NewReaderSize(r, 64*1024), max: max}
}

// Next returns the next non-blank line, or io.EOF once the input is exhausted.
// The returned slice is only valid until the following call.
func (r *LineReader) Next() ([]byte, error) {
	for {
		raw, err := r.readLine()
		if err != nil {
			return nil, err
		}
		r.line++
		b := bytes.TrimSpace(raw)
		if len(b) == 0 {
			continue
		}
		return b, nil
	}
}

func (r *LineReader) readLine() ([]byte, error) {
	r.buf = r.buf[:0]
	for {
		chunk, err := r.br.ReadSlice('\n')
		r.buf = append(r.buf, chunk...)
		n := len(r.buf)
		if n > 0 && r.buf[n-1] == '\n' {
			n--
		}
		if r.max > 0 && n > r.max {
			return nil, fmt.Errorf("line %d: %w", r.line+1, ErrLineTooLong)
		}
		switch {
		case err == nil:
			return r.buf, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(r.buf) == 0 {
				return nil, io.EOF
			}
			return r.buf, nil
		default:
			return nil, err
		}
	}
}

// Line is the 1-based number of the line last returned by Next.
func (r *LineReader) Line() int {
	return r.line
}

func WriteLine(w io.Writer, payload []byte) error {
	if len(payload) == 0 {
		return fmt.Errorf("empty payload")
	}
	if bytes.IndexByte(payload, '\n') >= 0 {
		return fmt.Errorf("payload contains newline")
	}
	line := make([]byte, len(payload)+1)
	copy(line, payload)
	line[len(payload)] = '\n'
	total := 0
	for total < len(line) {
		n, err := w.Write(line[total:])
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrShortWrite
		}
		total += n
	}
	return nil
}

// SniffType extracts body.type from a raw record without decoding the payload.
func SniffType(line []byte) (string, bool) {
	var hdr struct {
		Body struct {
			Type string `json:"type"`
		} `json:"body"`
	}
	if err := json.Unmarshal(line, &hdr); err == nil && hdr.Body.Type != "" {
		return hdr.Body.Type, true
	}
	prefix := line
	if len(prefix) > TypeSniffBytes {
		prefix = prefix[:TypeSniffBytes]
	}
	needle := []byte(`"type"`)
	idx := bytes.Index(prefix, needle)
	if idx == -1 {
		return "", false
	}
	rest := prefix[idx+len(needle):]
	colon := bytes.IndexByte(rest, ':')
	if colon == -1 {
		return "", false
	}
	rest = bytes.TrimLeft(rest[colon+1:], " \t\r\n")
	if len(rest) == 0 || rest[0] != '"' {
		return "", false
	}
	rest = rest[1:]
	end := bytes.IndexByte(rest, '"')
	if end == -1 {
		return "", false
	}
	return string(rest[:end]), true
}
