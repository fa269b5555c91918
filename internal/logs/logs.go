// Package logs implements the log/alert pipe (spec C11): an ordered,
// severity-tagged message channel with TTL'd warnings and a sticky
// critical status, surfaced to the operator as colored terminal lines.
// Ground truth: the original implementation's logs module (LogManager).
//
// This is distinct from the ambient log/slog output built in cmd/terminal:
// slog is the operator's structured diagnostic trail, Pipe is the
// user-facing status line the terminal's chrome renders.
package logs

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/nullpx/derivterm/pkg/types"
)

// Level tags the severity of a log entry.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

// Entry is one message flowing through the pipe.
type Entry struct {
	Level     Level
	Message   string
	ShowFor   time.Duration // only meaningful for LevelWarning; 0 = default
	Sound     bool          // hint for an external (out-of-scope) audio consumer
	CreatedAt types.Timestamp
}

// StatusKind is the overall health the Manager reports.
type StatusKind int

const (
	StatusOK StatusKind = iota
	StatusWarning
	StatusCritical
)

// Status is the Manager's current sticky/ttl'd health summary.
type Status struct {
	Kind    StatusKind
	Message string
}

// Pipe is the write side other packages use to emit entries.
type Pipe struct {
	ch chan Entry
}

// NewPipe returns a Pipe with the given channel buffer size.
func NewPipe(buffer int) *Pipe {
	return &Pipe{ch: make(chan Entry, buffer)}
}

// Info enqueues an informational message. Non-blocking: if the buffer is
// full the entry is dropped rather than stalling the caller.
func (p *Pipe) Info(message string) { p.send(Entry{Level: LevelInfo, Message: message, CreatedAt: types.Now()}) }

// Warning enqueues a warning message that will display for showFor
// (defaulting to 2s if zero).
func (p *Pipe) Warning(message string, showFor time.Duration) {
	p.send(Entry{Level: LevelWarning, Message: message, ShowFor: showFor, CreatedAt: types.Now()})
}

// Error enqueues an error message, which sets Manager.Status to a sticky
// Critical carrying that message; a later Error replaces the message, and
// nothing clears the Critical status.
func (p *Pipe) Error(message string) {
	p.send(Entry{Level: LevelError, Message: message, CreatedAt: types.Now()})
}

func (p *Pipe) send(e Entry) {
	select {
	case p.ch <- e:
	default:
	}
}

type warning struct {
	message string
	untilTS types.Timestamp
}

// Manager drains a Pipe, prints colored lines to the terminal, and tracks
// the TTL'd warnings queue and sticky critical status.
type Manager struct {
	mu       sync.Mutex
	pipe     *Pipe
	warnings *list.List // of warning, front = most recent
	status   Status
}

// NewManager returns a Manager reading from pipe.
func NewManager(pipe *Pipe) *Manager {
	return &Manager{pipe: pipe, warnings: list.New(), status: Status{Kind: StatusOK}}
}

// Consume drains all currently-buffered entries from the pipe, printing
// each and updating status/warnings-queue bookkeeping. Intended to be
// called on a tick from the terminal's render loop.
func (m *Manager) Consume() {
	for {
		select {
		case e := <-m.pipe.ch:
			m.apply(e)
		default:
			return
		}
	}
}

func (m *Manager) apply(e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch e.Level {
	case LevelInfo:
		printLine(color.FgGreen, "INFO", e)
	case LevelWarning:
		printLine(color.FgYellow, "WARNING", e)
		showFor := e.ShowFor
		if showFor <= 0 {
			showFor = 2 * time.Second
		}
		until := types.FromSeconds(e.CreatedAt.Seconds() + int64(showFor/time.Second))
		m.warnings.PushFront(warning{message: e.Message, untilTS: until})
	case LevelError:
		printLine(color.FgRed, "ERROR", e)
		m.status = Status{Kind: StatusCritical, Message: e.Message}
	}
}

func printLine(c color.Attribute, label string, e Entry) {
	tag := color.New(c).SprintFunc()
	fmt.Printf("%s %s %s\n", tag("["+label+"]"), e.CreatedAt.UTCString(), e.Message)
}

// Status returns the current overall status: a sticky Critical overrides
// everything; otherwise the oldest queued Warning; otherwise OK. A warning's
// lifetime counts in whole seconds; once it has run out, the warning is still
// reported by the call that finds it and is removed by that same call.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status.Kind == StatusCritical {
		return m.status
	}

	back := m.warnings.Back()
	if back == nil {
		return Status{Kind: StatusOK}
	}
	w := back.Value.(warning)
	if types.Now() >= w.untilTS {
		m.warnings.Remove(back)
	}
	return Status{Kind: StatusWarning, Message: w.message}
}
