package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "cache:reschedule:route:4:date:2026-03-06", rescheduleSearchKey(4, "2026-03-06"))
	assert.Equal(t, "cache:flight-instance:12", instanceKey(12))
	assert.Equal(t, "lock:sweeper", sweepLockKey())
}
