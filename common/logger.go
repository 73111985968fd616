package common

import (
	"fmt"
	"log"
)

const (
	confLoggerLevel = "sluice.log.level"
)

const (
	defaultLoggerLevel = Info
)

func print(format string, vals ...interface{}) {
	log.Println(fmt.Sprintf(format, vals...))
}

// Logger is the minimal leveled logger carried on a context.  Fmt derives
// a child logger whose lines are prefixed with the formatted component
// address, e.g. log.Fmt("Endpoint(%v)", id).
type Logger interface {
	Fmt(string, ...interface{}) Logger
	Debug(string, ...interface{})
	Info(string, ...interface{})
	Error(string, ...interface{})
}

type LoggerLevel int

const (
	Error LoggerLevel = iota
	Info
	Debug
)

func NewStandardLogger(c Config) Logger {
	return &standardLogger{LoggerLevel(c.OptionalInt(confLoggerLevel, int(defaultLoggerLevel)))}
}

type standardLogger struct {
	level LoggerLevel
}

func (s *standardLogger) Fmt(format string, vals ...interface{}) Logger {
	return &formattedLogger{s, fmt.Sprintf(format, vals...)}
}

func (s *standardLogger) Debug(format string, vals ...interface{}) {
	if s.level >= Debug {
		print(format, vals...)
	}
}

func (s *standardLogger) Info(format string, vals ...interface{}) {
	if s.level >= Info {
		print(format, vals...)
	}
}

func (s *standardLogger) Error(format string, vals ...interface{}) {
	if s.level >= Error {
		print(format, vals...)
	}
}

type formattedLogger struct {
	log Logger
	fmt string
}

func (s *formattedLogger) Fmt(format string, vals ...interface{}) Logger {
	return &formattedLogger{s, fmt.Sprintf(format, vals...)}
}

func (s *formattedLogger) Debug(format string, vals ...interface{}) {
	s.log.Debug(fmt.Sprintf("%v: %v", s.fmt, format), vals...)
}

func (s *formattedLogger) Info(format string, vals ...interface{}) {
	s.log.Info(fmt.Sprintf("%v: %v", s.fmt, format), vals...)
}

func (s *formattedLogger) Error(format string, vals ...interface{}) {
	s.log.Error(fmt.Sprintf("%v: %v", s.fmt, format), vals...)
}
