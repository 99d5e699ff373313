// Package log is the sync core's logging package, built the way
// go-ethereum builds its own: call-site capture via go-stack/stack,
// colored level tags via fatih/color, written through a
// terminal-aware writer from mattn/go-colorable, gated by
// mattn/go-isatty so piped output stays plain. It is intentionally
// small — this core has no use for log's rotation, JSON formatting or
// handler-chaining machinery, only leveled key-value lines.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
	isatty "github.com/mattn/go-isatty"
)

// Level is a log severity.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
	LevelCrit
)

func (l Level) tag() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelCrit:
		return "CRIT"
	default:
		return "????"
	}
}

func (l Level) color() *color.Color {
	switch l {
	case LevelInfo:
		return color.New(color.FgGreen)
	case LevelWarn:
		return color.New(color.FgYellow)
	case LevelError:
		return color.New(color.FgRed)
	case LevelCrit:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New()
	}
}

var (
	mu       sync.Mutex
	out      io.Writer = colorable.NewColorableStdout()
	colorize           = isatty.IsTerminal(os.Stdout.Fd())

	// exitFn is called by Crit after logging; overridable so tests
	// can exercise Crit without killing the test binary.
	exitFn = os.Exit
)

// SetOutput redirects all logging to w, disabling color (w is
// assumed not to be a terminal — callers that want colored output to
// a custom terminal writer should wrap it with colorable themselves).
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	colorize = false
}

// Logger attributes every line it emits with a fixed set of
// context key-values, mirroring go-ethereum's per-module loggers
// (e.g. log::Info("Sync") in the original C++).
type Logger struct {
	ctx []interface{}
}

// New creates a Logger with the given key-value context, e.g.
// log.New("module", "sync").
func New(ctx ...interface{}) Logger {
	return Logger{ctx: ctx}
}

func (lg Logger) Info(msg string, kv ...interface{})  { lg.write(LevelInfo, msg, kv) }
func (lg Logger) Warn(msg string, kv ...interface{})  { lg.write(LevelWarn, msg, kv) }
func (lg Logger) Error(msg string, kv ...interface{}) { lg.write(LevelError, msg, kv) }

// Crit logs at LevelCrit and then terminates the process, matching
// go-ethereum's log.Crit and the original's
// "throw std::logic_error(...)" fatal-abort behavior.
func (lg Logger) Crit(msg string, kv ...interface{}) {
	lg.write(LevelCrit, msg, kv)
	exitFn(1)
}

func (lg Logger) write(level Level, msg string, kv []interface{}) {
	mu.Lock()
	defer mu.Unlock()

	var b strings.Builder
	ts := time.Now().Format("2006-01-02T15:04:05.000")

	call := stack.Caller(2)

	if colorize {
		fmt.Fprintf(&b, "%s[%s] %s %-40s", level.color().Sprint(level.tag()), ts, msg, fmt.Sprintf("%+v", call))
	} else {
		fmt.Fprintf(&b, "%s[%s] %s %-40s", level.tag(), ts, msg, fmt.Sprintf("%+v", call))
	}

	all := append(append([]interface{}{}, lg.ctx...), kv...)
	for i := 0; i+1 < len(all); i += 2 {
		fmt.Fprintf(&b, " %v=%v", all[i], all[i+1])
	}
	if len(all)%2 == 1 {
		fmt.Fprintf(&b, " %v=%s", all[len(all)-1], "MISSING")
	}
	b.WriteByte('\n')

	io.WriteString(out, b.String())
}

// Package-level convenience loggers for call sites that don't need a
// dedicated module tag.
var root = New()

func Info(msg string, kv ...interface{})  { root.Info(msg, kv...) }
func Warn(msg string, kv ...interface{})  { root.Warn(msg, kv...) }
func Error(msg string, kv ...interface{}) { root.Error(msg, kv...) }
func Crit(msg string, kv ...interface{})  { root.Crit(msg, kv...) }
