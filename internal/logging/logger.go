package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// TimeFormat is the timestamp layout of every emitted line.
const TimeFormat = "2006-01-02 15:04:05"

// Destination selects where a message goes.
type Destination int

const (
	// DestBoth writes to the screen and, if open, to the sink.
	DestBoth Destination = iota
	// DestSink writes to the sink only. Nothing is written when no sink is open.
	DestSink
)

// Message is one formatted log line before it is written.
type Message struct {
	Subprogram string
	Time       time.Time
	Body       string
	Dest       Destination
}

// String renders the message as "[prophyle<tag>] <timestamp> <body>".
func (m Message) String() string {
	return fmt.Sprintf("[prophyle%s] %s %s", m.Subprogram, m.Time.Format(TimeFormat), m.Body)
}

// EmitOption adjusts a single Emit call.
type EmitOption func(*Message)

// WithSubprogram sets the tag appended to "prophyle" in the line prefix.
func WithSubprogram(tag string) EmitOption {
	return func(m *Message) {
		m.Subprogram = tag
	}
}

// Upper upper-cases the message body.
func Upper() EmitOption {
	return func(m *Message) {
		m.Body = strings.ToUpper(m.Body)
	}
}

// OnlyLog keeps the message off the screen.
func OnlyLog() EmitOption {
	return func(m *Message) {
		m.Dest = DestSink
	}
}

// Logger writes prophyle-style progress lines. It is built once by the CLI
// and passed to the runner and the pipeline stages.
type Logger struct {
	screen io.Writer
	sink   *Sink
	now    func() time.Time
}

// LoggerOption configures a Logger.
type LoggerOption func(*Logger)

// WithScreen sets the screen writer (default os.Stderr).
func WithScreen(w io.Writer) LoggerOption {
	return func(l *Logger) {
		l.screen = w
	}
}

// WithSink attaches a persistent sink.
func WithSink(s *Sink) LoggerOption {
	return func(l *Logger) {
		l.sink = s
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) LoggerOption {
	return func(l *Logger) {
		l.now = now
	}
}

// NewLogger creates a Logger writing to stderr with no sink.
func NewLogger(opts ...LoggerOption) *Logger {
	l := &Logger{
		screen: os.Stderr,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Emit formats msg and writes it to the selected destinations.
// Screen write failures are ignored. Sink failures are reported on the
// screen and never abort the run.
func (l *Logger) Emit(msg string, opts ...EmitOption) {
	m := Message{
		Time: l.now(),
		Body: msg,
		Dest: DestBoth,
	}
	for _, opt := range opts {
		opt(&m)
	}

	line := m.String()

	if m.Dest != DestSink && l.screen != nil {
		_, _ = fmt.Fprintln(l.screen, line)
	}
	if l.sink != nil {
		if err := l.sink.WriteLine(line); err != nil && l.screen != nil {
			_, _ = fmt.Fprintf(l.screen, "log sink write failed: %v\n", err)
		}
	}
}
