// Copyright 2024 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log provides a minimal leveled logging facility.
//
// The package-level helpers route through a process-wide logger that can
// be retargeted with SetTarget. Emission is pluggable via the Emitter
// interface; the default emits plain text lines to stderr.
package log

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"gvisor.dev/kpipe/pkg/sync"
)

// Level is the log level.
type Level uint32

// The set of levels, in decreasing severity.
const (
	// Warning indicates a problem that should be surfaced even in quiet
	// runs.
	Warning Level = iota

	// Info is the normal operational level.
	Info

	// Debug is verbose tracing, off by default.
	Debug
)

// String implements fmt.Stringer.
func (l Level) String() string {
	switch l {
	case Warning:
		return "W"
	case Info:
		return "I"
	case Debug:
		return "D"
	default:
		return "?"
	}
}

// Emitter is the final destination for log lines.
type Emitter interface {
	// Emit emits the given log statement.
	Emit(level Level, timestamp time.Time, format string, v ...any)
}

// Writer writes formatted log lines to an io.Writer, serializing
// concurrent emissions.
type Writer struct {
	// Next is the log sink.
	Next io.Writer

	// mu protects Next.
	mu sync.Mutex
}

// Emit implements Emitter.Emit.
func (w *Writer) Emit(level Level, timestamp time.Time, format string, v ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.Next, "%s%s] ", level, timestamp.Format("0102 15:04:05.000000"))
	fmt.Fprintf(w.Next, format, v...)
	fmt.Fprintln(w.Next)
}

// BasicLogger is a convenience pairing of a Level and an Emitter.
type BasicLogger struct {
	Level
	Emitter
}

// Warningf logs at the Warning level.
func (l *BasicLogger) Warningf(format string, v ...any) {
	if l.IsLogging(Warning) {
		l.Emit(Warning, time.Now(), format, v...)
	}
}

// Infof logs at the Info level.
func (l *BasicLogger) Infof(format string, v ...any) {
	if l.IsLogging(Info) {
		l.Emit(Info, time.Now(), format, v...)
	}
}

// Debugf logs at the Debug level.
func (l *BasicLogger) Debugf(format string, v ...any) {
	if l.IsLogging(Debug) {
		l.Emit(Debug, time.Now(), format, v...)
	}
}

// IsLogging returns whether level is being logged.
func (l *BasicLogger) IsLogging(level Level) bool {
	return level <= l.Level
}

// logger is the process-wide logger.
var logger atomic.Pointer[BasicLogger]

func init() {
	logger.Store(&BasicLogger{
		Level:   Info,
		Emitter: &Writer{Next: os.Stderr},
	})
}

// Log retrieves the global logger.
func Log() *BasicLogger {
	return logger.Load()
}

// SetTarget sets the log target for the process.
func SetTarget(e Emitter) {
	old := Log()
	logger.Store(&BasicLogger{Level: old.Level, Emitter: e})
}

// SetLevel sets the log level for the process.
func SetLevel(level Level) {
	old := Log()
	logger.Store(&BasicLogger{Level: level, Emitter: old.Emitter})
}

// Warningf logs to the global logger.
func Warningf(format string, v ...any) {
	Log().Warningf(format, v...)
}

// Infof logs to the global logger.
func Infof(format string, v ...any) {
	Log().Infof(format, v...)
}

// Debugf logs to the global logger.
func Debugf(format string, v ...any) {
	Log().Debugf(format, v...)
}

// IsLogging returns whether the global logger emits the given level.
func IsLogging(level Level) bool {
	return Log().IsLogging(level)
}
