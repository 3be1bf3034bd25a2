// Package getvscodecmd extracts the client commands recorded in a netcoredbg
// VS Code protocol log and re-frames them so the session can be replayed.
//
// netcoredbg logs every message it exchanges with the IDE behind a direction
// prefix. Commands sent by the client look like
//
//	-> (C) {"command":"initialize","arguments":{...},"seq":1,"type":"request"}
//
// Each extracted payload is written preceded by a Content-Length header:
//
//	$ getvscodecmd vscode_output > cmd
//	$ unix2dos cmd
//	$ netcoredbg --interpreter=vscode --engineLogging=/tmp < cmd
package getvscodecmd

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// Direction is an enumeration type for the message direction prefix.
type Direction int

const (
	DirectionUnknown Direction = iota
	DirectionCommand
	DirectionResponse
	DirectionEvent
)

const (
	commandPrefix  = "-> (C) "
	responsePrefix = "<- (R) "
	eventPrefix    = "<- (E) "
)

func (d Direction) String() string {
	switch d {
	case DirectionUnknown:
		return "unknown"
	case DirectionCommand:
		return "command"
	case DirectionResponse:
		return "response"
	case DirectionEvent:
		return "event"
	default:
		return fmt.Sprintf("DIRECTION(%d)", int(d))
	}
}

// Prefix returns the literal text netcoredbg writes in front of a message
// of this direction, or "" for DirectionUnknown.
func (d Direction) Prefix() string {
	switch d {
	case DirectionCommand:
		return commandPrefix
	case DirectionResponse:
		return responsePrefix
	case DirectionEvent:
		return eventPrefix
	default:
		return ""
	}
}

// ParseDirection classifies a log line by its prefix.
func ParseDirection(line string) Direction {
	switch {
	case strings.HasPrefix(line, commandPrefix):
		return DirectionCommand
	case strings.HasPrefix(line, responsePrefix):
		return DirectionResponse
	case strings.HasPrefix(line, eventPrefix):
		return DirectionEvent
	default:
		return DirectionUnknown
	}
}

// The payload runs to the end of the line. Braces are not balanced.
var commandPattern = regexp.MustCompile(`^-> \(C\) (\{.+)$`)

// MatchCommand reports whether line is a logged client command and returns
// its payload. line must not contain its line terminator.
func MatchCommand(line string) (string, bool) {
	m := commandPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Command is one client command found in the log.
type Command struct {
	Line    int // 1-based line number in the input
	Payload string
}

// ReadError is returned when the underlying reader fails.
type ReadError struct {
	Line int
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read failed after line %d: %v", e.Line, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// InputFileError is returned when the input log cannot be opened or read.
type InputFileError struct {
	Path string
	Err  error
}

func (e *InputFileError) Error() string {
	return fmt.Sprintf("cannot read input file %s: %v", e.Path, e.Err)
}

func (e *InputFileError) Unwrap() error { return e.Err }

// Option configures extraction and framing.
type Option func(*options)

type options struct {
	logger     zerolog.Logger
	lineEnding string
}

func newOptions(opts []Option) *options {
	o := &options{
		logger:     zerolog.Nop(),
		lineEnding: "\n",
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger used for debug diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithLineEnding sets the line terminator written by the frame writer.
// Use "\r\n" to produce a stream that needs no unix2dos pass.
func WithLineEnding(eol string) Option {
	return func(o *options) { o.lineEnding = eol }
}

// ExtractFromBytes extracts all commands from a byte slice.
func ExtractFromBytes(b []byte) ([]*Command, error) {
	return ExtractFromReader(bytes.NewReader(b))
}

// ExtractFromString extracts all commands from a string.
func ExtractFromString(s string) ([]*Command, error) {
	return ExtractFromReader(strings.NewReader(s))
}

// ExtractFromReader extracts all commands from r until io.EOF.
func ExtractFromReader(r io.Reader, opts ...Option) ([]*Command, error) {
	var cmds []*Command
	e := NewStreamExtractor(r, opts...)
	for {
		cmd, err := e.ExtractNext()
		if err != nil {
			return nil, err
		}
		if cmd == nil {
			break
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// Extract streams commands from r to w as Content-Length framed records,
// in input order. It returns the number of records written.
func Extract(r io.Reader, w io.Writer, opts ...Option) (int, error) {
	o := newOptions(opts)
	e := newStreamExtractor(r, o)
	fw := newFrameWriter(w, o)
	n := 0
	for {
		cmd, err := e.ExtractNext()
		if err != nil {
			return n, err
		}
		if cmd == nil {
			break
		}
		if err := fw.WriteFrame(cmd.Payload); err != nil {
			return n, fmt.Errorf("write command from line %d: %w", cmd.Line, err)
		}
		n++
	}
	o.logger.Debug().
		Int("lines", e.line).
		Int("commands", n).
		Int("responses", e.Seen(DirectionResponse)).
		Int("events", e.Seen(DirectionEvent)).
		Int("other", e.Seen(DirectionUnknown)).
		Msg("extraction finished")
	return n, nil
}

// ExtractFile is Extract over the file at path. Open and read failures are
// reported as *InputFileError. Records written before a read failure are
// not retracted.
func ExtractFile(path string, w io.Writer, opts ...Option) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, &InputFileError{Path: path, Err: err}
	}
	defer f.Close()

	n, err := Extract(f, w, opts...)
	var re *ReadError
	if errors.As(err, &re) {
		return n, &InputFileError{Path: path, Err: err}
	}
	return n, err
}

// StreamExtractor reads a log from io.Reader line by line and yields the
// logged client commands. Lines of any length are supported and the log
// is never held in memory as a whole.
type StreamExtractor struct {
	br   *bufio.Reader
	line int
	seen [DirectionEvent + 1]int
	log  zerolog.Logger
}

// NewStreamExtractor creates new *StreamExtractor associated with the io.Reader.
func NewStreamExtractor(r io.Reader, opts ...Option) *StreamExtractor {
	return newStreamExtractor(r, newOptions(opts))
}

func newStreamExtractor(r io.Reader, o *options) *StreamExtractor {
	return &StreamExtractor{
		br:  bufio.NewReader(r),
		log: o.logger,
	}
}

// ExtractNext returns the next command in the log. It returns (nil, nil)
// once the underlying io.Reader returns io.EOF.
func (e *StreamExtractor) ExtractNext() (*Command, error) {
	for {
		line, err := e.readLine()
		if err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, e.wrapErr(err)
		}
		d := ParseDirection(line)
		e.seen[d]++
		if payload, ok := MatchCommand(line); ok {
			return &Command{Line: e.line, Payload: payload}, nil
		}
		e.log.Trace().Int("line", e.line).Stringer("direction", d).Msg("skip")
	}
}

// Seen returns how many lines read so far carried the prefix of d.
// Command lines whose payload does not match are counted too.
func (e *StreamExtractor) Seen(d Direction) int {
	if d < DirectionUnknown || d > DirectionEvent {
		return 0
	}
	return e.seen[d]
}

func (e *StreamExtractor) wrapErr(cause error) error {
	return &ReadError{Line: e.line, Err: cause}
}

// readLine returns the next line without its terminator. A final line
// without a terminator is still returned.
func (e *StreamExtractor) readLine() (string, error) {
	s, err := e.br.ReadString('\n')
	if err != nil && (err != io.EOF || s == "") {
		return "", err
	}
	e.line++
	return trimLineEnding(s), nil
}

func trimLineEnding(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
