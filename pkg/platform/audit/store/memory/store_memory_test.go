package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "intake/pkg/platform/audit"
)

func TestRingStore(t *testing.T) {
	ctx := context.Background()

	t.Run("returns newest first", func(t *testing.T) {
		s := NewRingStore(10)
		for i := range 3 {
			require.NoError(t, s.Append(ctx, audit.Event{Action: fmt.Sprintf("e%d", i)}))
		}

		events, err := s.ListRecent(ctx, 0)
		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, "e2", events[0].Action)
		assert.Equal(t, "e0", events[2].Action)
	})

	t.Run("evicts oldest when full", func(t *testing.T) {
		s := NewRingStore(2)
		for i := range 5 {
			require.NoError(t, s.Append(ctx, audit.Event{Action: fmt.Sprintf("e%d", i)}))
		}

		events, err := s.ListRecent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "e4", events[0].Action)
		assert.Equal(t, "e3", events[1].Action)
		assert.Equal(t, int64(3), s.Dropped())
	})

	t.Run("limit caps result", func(t *testing.T) {
		s := NewRingStore(5)
		for i := range 4 {
			require.NoError(t, s.Append(ctx, audit.Event{Action: fmt.Sprintf("e%d", i)}))
		}
		events, err := s.ListRecent(ctx, 1)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "e3", events[0].Action)
	})
}
