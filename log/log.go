// Package log provides the structured, key-value logger used across this
// module, in place of fmt.Println or the stdlib log package. Call sites look
// like log.Warn("lost etcd instance lock", "pubkey", pk, "err", err).
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Lvl is the severity of a log line, ordered most to least severe.
type Lvl int

const (
	LvlCrit Lvl = iota
	LvlError
	LvlWarn
	LvlInfo
	LvlDebug
	LvlTrace
)

func (l Lvl) String() string {
	switch l {
	case LvlCrit:
		return "CRIT"
	case LvlError:
		return "ERROR"
	case LvlWarn:
		return "WARN"
	case LvlInfo:
		return "INFO"
	case LvlDebug:
		return "DEBUG"
	case LvlTrace:
		return "TRACE"
	default:
		return "????"
	}
}

var levelColor = map[Lvl]int{
	LvlCrit:  35, // magenta
	LvlError: 31, // red
	LvlWarn:  33, // yellow
	LvlInfo:  32, // green
	LvlDebug: 36, // cyan
	LvlTrace: 90, // bright black
}

// Logger is the interface every package in this module logs through.
type Logger interface {
	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	Crit(msg string, ctx ...interface{})

	// New returns a child logger with ctx appended to every line it writes.
	New(ctx ...interface{}) Logger
}

type logger struct {
	ctx    []interface{}
	mu     *sync.Mutex
	out    io.Writer
	color  bool
	minLvl Lvl
}

var root = newLogger(os.Stderr, LvlInfo)

func newLogger(w io.Writer, minLvl Lvl) *logger {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd())
	}
	out := w
	if color {
		out = colorable.NewColorable(w.(*os.File))
	}
	return &logger{mu: new(sync.Mutex), out: out, color: color, minLvl: minLvl}
}

// Root returns the module-wide default logger.
func Root() Logger { return root }

// SetOutput redirects the root logger, e.g. to a log file. Intended for
// cmd/towerd startup, not for use from library code.
func SetOutput(w io.Writer) {
	l := newLogger(w, root.minLvl)
	root.mu = l.mu
	root.out = l.out
	root.color = l.color
}

// SetLevel bounds the root logger to lines at or above lvl.
func SetLevel(lvl Lvl) { root.minLvl = lvl }

func New(ctx ...interface{}) Logger { return root.New(ctx...) }

func (l *logger) New(ctx ...interface{}) Logger {
	child := &logger{mu: l.mu, out: l.out, color: l.color, minLvl: l.minLvl}
	child.ctx = append(append([]interface{}{}, l.ctx...), ctx...)
	return child
}

func (l *logger) write(lvl Lvl, msg string, ctx []interface{}) {
	if lvl > l.minLvl {
		return
	}
	var b strings.Builder
	b.WriteString(time.Now().UTC().Format("2006-01-02T15:04:05.000Z"))
	b.WriteByte(' ')
	if l.color {
		fmt.Fprintf(&b, "\x1b[%dm%-5s\x1b[0m", levelColor[lvl], lvl)
	} else {
		fmt.Fprintf(&b, "%-5s", lvl)
	}
	b.WriteByte(' ')
	b.WriteString(msg)

	all := append(append([]interface{}{}, l.ctx...), ctx...)
	for i := 0; i+1 < len(all); i += 2 {
		fmt.Fprintf(&b, " %v=%v", all[i], all[i+1])
	}
	if lvl <= LvlWarn {
		if call := callerAbove(3); call != "" {
			fmt.Fprintf(&b, " caller=%s", call)
		}
	}
	b.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.out, b.String())
}

// callerAbove returns a short file:line for the first frame outside this
// package, skip frames into the call stack before searching.
func callerAbove(skip int) string {
	self := fmt.Sprintf("%+k", stack.Caller(0))
	for _, call := range stack.Trace().TrimBelow(stack.Caller(skip)).TrimRuntime() {
		if fmt.Sprintf("%+k", call) != self {
			return fmt.Sprintf("%+v", call)
		}
	}
	return ""
}

func (l *logger) Trace(msg string, ctx ...interface{}) { l.write(LvlTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...interface{}) { l.write(LvlDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.write(LvlInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.write(LvlWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.write(LvlError, msg, ctx) }
func (l *logger) Crit(msg string, ctx ...interface{})  { l.write(LvlCrit, msg, ctx) }

func Trace(msg string, ctx ...interface{}) { root.Trace(msg, ctx...) }
func Debug(msg string, ctx ...interface{}) { root.Debug(msg, ctx...) }
func Info(msg string, ctx ...interface{})  { root.Info(msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { root.Warn(msg, ctx...) }
func Error(msg string, ctx ...interface{}) { root.Error(msg, ctx...) }
func Crit(msg string, ctx ...interface{})  { root.Crit(msg, ctx...) }
