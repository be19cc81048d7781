package timezone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocationFallsBackToDefault(t *testing.T) {
	assert.Equal(t, DefaultTimezone, Location("").String())
	assert.Equal(t, DefaultTimezone, Location("Mars/Olympus").String())
	assert.Equal(t, "Asia/Manila", Location("Asia/Manila").String())
}

func TestSetDefault(t *testing.T) {
	t.Cleanup(func() { SetDefault(DefaultTimezone) })

	SetDefault("Asia/Manila")
	assert.Equal(t, "Asia/Manila", Location("").String())

	SetDefault("not/a/zone")
	assert.Equal(t, "Asia/Manila", Default())
}
