package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_OptionalInt_empty(t *testing.T) {
	config := NewEmptyConfig()
	assert.Equal(t, 1, config.OptionalInt("key", 1))
}

func TestConfig_OptionalInt_set(t *testing.T) {
	config := NewConfig(map[string]interface{}{"key": 2})
	assert.Equal(t, 2, config.OptionalInt("key", 1))
}

func TestConfig_OptionalInt_badType(t *testing.T) {
	config := NewConfig(map[string]interface{}{"key": "two"})
	assert.Panics(t, func() {
		config.OptionalInt("key", 1)
	})
}

func TestConfig_OptionalDuration_empty(t *testing.T) {
	config := NewEmptyConfig()
	assert.Equal(t, time.Second, config.OptionalDuration("key", time.Second))
}

func TestConfig_OptionalDuration_milliseconds(t *testing.T) {
	config := NewConfig(map[string]interface{}{"key": 250})
	assert.Equal(t, 250*time.Millisecond, config.OptionalDuration("key", time.Second))
}
