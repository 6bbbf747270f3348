// Package notify delivers short user-facing messages: the success and
// error toasts of the application.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

type Level string

const (
	Success Level = "success"
	Failure Level = "error"
)

type Message struct {
	Level Level
	Text  string
}

type Notifier interface {
	Success(text string)
	Error(text string)
}

// Nop drops every message.
type Nop struct{}

func (Nop) Success(string) {}
func (Nop) Error(string)   {}

// Log writes messages to a zerolog logger.
type Log struct {
	Logger zerolog.Logger
}

func (l Log) Success(text string) {
	l.Logger.Info().Str("toast", string(Success)).Msg(text)
}

func (l Log) Error(text string) {
	l.Logger.Warn().Str("toast", string(Failure)).Msg(text)
}

// Writer prints messages for a terminal, one per line.
type Writer struct {
	mu  sync.Mutex
	Out io.Writer
	Err io.Writer
}

func (w *Writer) Success(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(w.Out, text)
}

func (w *Writer) Error(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.Err
	if out == nil {
		out = w.Out
	}
	fmt.Fprintln(out, "error:", text)
}

// Recorder keeps every message; used by tests and request handlers that
// report messages back to the caller.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *Recorder) Success(text string) { r.add(Success, text) }
func (r *Recorder) Error(text string)   { r.add(Failure, text) }

func (r *Recorder) add(level Level, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, Message{Level: level, Text: text})
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

// Last returns the most recent message, or the zero Message.
func (r *Recorder) Last() Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return Message{}
	}
	return r.msgs[len(r.msgs)-1]
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = nil
}
