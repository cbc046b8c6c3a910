package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWaitMinutes(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want int
	}{
		{"rounds partial minutes up", 61 * time.Second, 2},
		{"exact minutes", 30 * time.Minute, 30},
		{"never below one", 0, 1},
		{"negative clamps", -time.Minute, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WaitMinutes(tt.in))
		})
	}
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "Too many submissions. Please try again in 45 minutes.", SubmissionLimitMessage(44*time.Minute+time.Second))
	assert.Equal(t, "This email was recently used. Please try again in 30 minutes or use a different email.", CooldownMessage(30*time.Minute))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "rl:submit:2001_db8__1", BucketKey(ClassSubmit, "2001:db8::1"))
	assert.Equal(t, "alice@example.com", CooldownKey("  Alice@Example.COM "))
	assert.Equal(t, "sus:10.0.0.1", SuspiciousKey("10.0.0.1"))
}

func TestSuspiciousRecordLapsed(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	rec := SuspiciousRecord{Count: 3, WindowStart: start}
	assert.False(t, rec.Lapsed(start.Add(59*time.Minute), time.Hour))
	assert.True(t, rec.Lapsed(start.Add(time.Hour), time.Hour))
}
