/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package logger

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger is the injectable logging surface used by every component.
type Logger interface {
	Trace() *zerolog.Event
	Debug() *zerolog.Event
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
	With() zerolog.Context
	WithComponent(component string) zerolog.Logger
	SetLevel(level zerolog.Level)
	SetDebug(debug bool)
}

// ZeroLogger adapts a zerolog.Logger to the Logger interface.
type ZeroLogger struct {
	logger zerolog.Logger
}

// New wraps an existing zerolog logger.
func New(l zerolog.Logger) *ZeroLogger {
	return &ZeroLogger{logger: l}
}

func (l *ZeroLogger) Trace() *zerolog.Event { return l.logger.Trace() }
func (l *ZeroLogger) Debug() *zerolog.Event { return l.logger.Debug() }
func (l *ZeroLogger) Info() *zerolog.Event  { return l.logger.Info() }
func (l *ZeroLogger) Warn() *zerolog.Event  { return l.logger.Warn() }
func (l *ZeroLogger) Error() *zerolog.Event { return l.logger.Error() }
func (l *ZeroLogger) With() zerolog.Context { return l.logger.With() }

func (l *ZeroLogger) WithComponent(component string) zerolog.Logger {
	return l.logger.With().Str("component", component).Logger()
}

func (l *ZeroLogger) SetLevel(level zerolog.Level) {
	l.logger = l.logger.Level(level)
}

func (l *ZeroLogger) SetDebug(debug bool) {
	if debug {
		l.SetLevel(zerolog.DebugLevel)
	} else {
		l.SetLevel(zerolog.InfoLevel)
	}
}

// NewTestLogger creates a no-op logger for testing that discards all output
func NewTestLogger() Logger {
	return New(zerolog.New(io.Discard).Level(zerolog.Disabled))
}

// NewWriterLogger returns a debug-level logger writing JSON lines to w.
func NewWriterLogger(w io.Writer) Logger {
	return New(zerolog.New(w).Level(zerolog.DebugLevel).With().Timestamp().Logger())
}
