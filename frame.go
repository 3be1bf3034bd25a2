package getvscodecmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	contentLengthHeader = "Content-Length: "
	maxFramePrealloc    = 64 * 1024
)

// ErrProtocol is wrapped by errors describing a malformed framed stream.
var ErrProtocol = errors.New("protocol violation")

// FrameWriter writes payloads as Content-Length framed records:
//
//	Content-Length: <N>
//
//	<payload>
//
// N counts characters, not bytes.
type FrameWriter struct {
	w   io.Writer
	eol string
	buf []byte
}

// NewFrameWriter creates new *FrameWriter writing to w.
func NewFrameWriter(w io.Writer, opts ...Option) *FrameWriter {
	return newFrameWriter(w, newOptions(opts))
}

func newFrameWriter(w io.Writer, o *options) *FrameWriter {
	return &FrameWriter{w: w, eol: o.lineEnding}
}

// WriteFrame writes one record with a single Write call.
func (fw *FrameWriter) WriteFrame(payload string) error {
	fw.buf = fw.buf[:0]
	fw.buf = append(fw.buf, contentLengthHeader...)
	fw.buf = strconv.AppendInt(fw.buf, int64(utf8.RuneCountInString(payload)), 10)
	fw.buf = append(fw.buf, fw.eol...)
	fw.buf = append(fw.buf, fw.eol...)
	fw.buf = append(fw.buf, payload...)
	fw.buf = append(fw.buf, fw.eol...)
	_, err := fw.w.Write(fw.buf)
	return err
}

// FrameReader reads records produced by FrameWriter. Blank lines between
// records are skipped, "\r\n" and "\n" terminators are both accepted, and
// header lines other than Content-Length are ignored.
type FrameReader struct {
	br *bufio.Reader
}

// NewFrameReader creates new *FrameReader associated with the io.Reader.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{br: bufio.NewReader(r)}
}

// ReadFrame returns the next payload. It returns io.EOF when the stream
// ends on a record boundary and io.ErrUnexpectedEOF when it ends inside one.
func (fr *FrameReader) ReadFrame() (string, error) {
	length, err := fr.readHeader()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	// The header is untrusted; cap the preallocation.
	sb.Grow(min(length, maxFramePrealloc))
	for i := 0; i < length; i++ {
		c, _, err := fr.br.ReadRune()
		if err != nil {
			if err == io.EOF {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		sb.WriteRune(c)
	}
	return sb.String(), nil
}

func (fr *FrameReader) readHeader() (int, error) {
	length := -1
	inHeader := false
	for {
		line, err := fr.br.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				return 0, err
			}
			if !inHeader && strings.TrimSpace(line) == "" {
				return 0, io.EOF
			}
			return 0, io.ErrUnexpectedEOF
		}
		line = trimLineEnding(line)
		if line == "" {
			if !inHeader {
				continue
			}
			if length < 0 {
				return 0, fmt.Errorf("%w: no Content-Length header", ErrProtocol)
			}
			return length, nil
		}
		inHeader = true
		if !strings.HasPrefix(line, contentLengthHeader) {
			continue
		}
		// A repeated header overrides the previous one.
		v := strings.TrimRightFunc(line[len(contentLengthHeader):], unicode.IsSpace)
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: malformed header %q", ErrProtocol, line)
		}
		length = n
	}
}
