package main

import (
	"io"
	"os"

	"github.com/9seconds/rangegeo/rangelib"
	"github.com/rs/zerolog"
)

type logger struct {
	appLog    zerolog.Logger
	loadLog   zerolog.Logger
	lookupLog zerolog.Logger
}

func (l *logger) LoadInfo(source, msg string) {
	l.loadLog.Info().Str("dataset", source).Msg(msg)
}

func (l *logger) LoadWarning(source, msg string) {
	l.loadLog.Warn().Str("dataset", source).Msg(msg)
}

func (l *logger) LoadError(source string, err error) {
	l.loadLog.Error().Str("dataset", source).Err(err).Msg("cannot load dataset")
}

func (l *logger) LookupError(ip string, err error) {
	l.lookupLog.Error().Str("ip", ip).Err(err).Msg("")
}

var _ rangelib.Logger = &logger{}

func newLogger(w io.Writer, debug bool) *logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	return &logger{
		appLog:    zerolog.New(w).Level(level).With().Timestamp().Str("event_name", "app").Logger(),
		loadLog:   zerolog.New(w).Level(level).With().Timestamp().Str("event_name", "load").Logger(),
		lookupLog: zerolog.New(w).Level(level).With().Timestamp().Str("event_name", "lookup").Logger(),
	}
}

func newStderrLogger(debug bool) *logger {
	return newLogger(os.Stderr, debug)
}
