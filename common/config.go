package common

import (
	"fmt"
	"time"
)

// Configuration is a runtime concern.  Components read their knobs at
// construction through Optional* lookups with compiled-in defaults, so
// an empty config is always a working config.
//
// Durations are stored as plain ints and interpreted as milliseconds.
// This keeps the backing map trivially buildable from flat sources
// while preserving type guarantees at the call site.

type ConfigType string

const (
	Int      ConfigType = "int"
	Duration ConfigType = "int(milliseconds)"
)

type ConfigParsingError struct {
	expected ConfigType
	key      string
	val      interface{}
}

func (c ConfigParsingError) Error() string {
	return fmt.Sprintf("Error parsing config key [%s].  Expected type [%s], which can't be converted from [%v]", c.key, c.expected, c.val)
}

type Config interface {
	OptionalInt(key string, def int) int
	OptionalDuration(key string, def time.Duration) time.Duration
}

func NewEmptyConfig() Config {
	return NewConfig(nil)
}

func NewConfig(internal map[string]interface{}) Config {
	if internal == nil {
		internal = make(map[string]interface{})
	}

	return &config{internal}
}

type config struct {
	internal map[string]interface{}
}

func (c *config) OptionalInt(key string, def int) int {
	val, ok := c.internal[key]
	if !ok {
		return def
	}

	ret, ok := val.(int)
	if !ok {
		panic(ConfigParsingError{Int, key, val})
	}

	return ret
}

func (c *config) OptionalDuration(key string, def time.Duration) time.Duration {
	val, ok := c.internal[key]
	if !ok {
		return def
	}

	ret, ok := val.(int)
	if !ok {
		panic(ConfigParsingError{Duration, key, val})
	}

	return time.Duration(ret) * time.Millisecond
}
