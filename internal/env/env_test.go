package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStr(t *testing.T) {
	t.Setenv("TEST_STR", "value")
	assert.Equal(t, "value", Str("TEST_STR", "fb"))
	assert.Equal(t, "fb", Str("TEST_STR_UNSET", "fb"))
}

func TestInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	assert.Equal(t, 42, Int("TEST_INT", 7))
	assert.Equal(t, 7, Int("TEST_INT_UNSET", 7))

	t.Setenv("TEST_INT_BAD", "not-a-number")
	assert.Equal(t, 7, Int("TEST_INT_BAD", 7))
}

func TestDuration(t *testing.T) {
	t.Setenv("TEST_DUR", "1500ms")
	assert.Equal(t, 1500*time.Millisecond, Duration("TEST_DUR", time.Second))
	assert.Equal(t, time.Second, Duration("TEST_DUR_UNSET", time.Second))

	t.Setenv("TEST_DUR_BAD", "soon")
	assert.Equal(t, time.Second, Duration("TEST_DUR_BAD", time.Second))
}
