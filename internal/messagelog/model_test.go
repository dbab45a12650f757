package messagelog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIdempotencyKey(t *testing.T) {
	d := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "42:BIRTHDAY:2025-06-15", IdempotencyKey(42, "BIRTHDAY", d))
}

func TestIdempotencyKey_StableAcrossTimeOfDay(t *testing.T) {
	morning := time.Date(2025, 6, 15, 1, 0, 0, 0, time.UTC)
	evening := time.Date(2025, 6, 15, 23, 0, 0, 0, time.UTC)
	assert.Equal(t,
		IdempotencyKey(1, "BIRTHDAY", morning),
		IdempotencyKey(1, "BIRTHDAY", evening),
	)
}
