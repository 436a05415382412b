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

//go:generate mockgen -destination=mock_logger.go -package=logger github.com/carverauto/nodeidentifier/pkg/logger Logger

package logger

import (
	"io"

	"github.com/rs/zerolog"
)

type Logger interface {
	Trace() *zerolog.Event
	Debug() *zerolog.Event
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
	Fatal() *zerolog.Event
	With() zerolog.Context
	WithComponent(component string) zerolog.Logger
	SetLevel(level zerolog.Level)
	SetDebug(debug bool)
}

type zeroLogger struct {
	logger zerolog.Logger
}

// FromZerolog adapts an existing zerolog.Logger to the Logger interface.
func FromZerolog(zlog zerolog.Logger) Logger {
	return &zeroLogger{logger: zlog}
}

func (l *zeroLogger) Trace() *zerolog.Event { return l.logger.Trace() }
func (l *zeroLogger) Debug() *zerolog.Event { return l.logger.Debug() }
func (l *zeroLogger) Info() *zerolog.Event  { return l.logger.Info() }
func (l *zeroLogger) Warn() *zerolog.Event  { return l.logger.Warn() }
func (l *zeroLogger) Error() *zerolog.Event { return l.logger.Error() }
func (l *zeroLogger) Fatal() *zerolog.Event { return l.logger.Fatal() }
func (l *zeroLogger) With() zerolog.Context { return l.logger.With() }

func (l *zeroLogger) WithComponent(component string) zerolog.Logger {
	return l.logger.With().Str("component", component).Logger()
}

func (l *zeroLogger) SetLevel(level zerolog.Level) {
	l.logger = l.logger.Level(level)
}

func (l *zeroLogger) SetDebug(debug bool) {
	if debug {
		l.SetLevel(zerolog.DebugLevel)
	} else {
		l.SetLevel(zerolog.InfoLevel)
	}
}

// NewTestLogger creates a no-op logger for testing that discards all output
func NewTestLogger() Logger {
	return &zeroLogger{logger: zerolog.New(io.Discard).Level(zerolog.Disabled)}
}
