package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInFlight_AcquireRelease(t *testing.T) {
	var f InFlight

	release, ok := f.Acquire("t1")
	require.True(t, ok)

	_, ok = f.Acquire("t1")
	assert.False(t, ok, "second holder must be rejected")

	other, ok := f.Acquire("t2")
	require.True(t, ok, "other keys are independent")
	other()

	release()
	release2, ok := f.Acquire("t1")
	assert.True(t, ok)
	release2()
}
