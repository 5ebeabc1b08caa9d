package tracking

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2024, time.March, 9, 15, 0, 0, 0, time.UTC)
}

func TestTrack_SeedIsReproducible(t *testing.T) {
	t.Parallel()

	a := NewGenerator(WithSeed(42), WithClock(fixedClock))
	b := NewGenerator(WithSeed(42), WithClock(fixedClock))

	for id := 1; id <= 20; id++ {
		assert.Equal(t, a.Track(id), b.Track(id))
	}
}

func TestTrack_Invariants(t *testing.T) {
	t.Parallel()

	g := NewGenerator(WithSeed(7), WithClock(fixedClock))
	seen := map[string]bool{}

	for i := 0; i < 500; i++ {
		tr := g.Track(i)
		require.Equal(t, i, tr.OrderID)
		require.GreaterOrEqual(t, tr.TrackingID, 1)
		require.LessOrEqual(t, tr.TrackingID, maxTrackingID)
		require.Contains(t, partners, tr.Partner)
		require.Contains(t, statuses, tr.Status)

		if tr.Status == StatusDelivered {
			require.Empty(t, tr.TentativeDeliveryDate)
		} else {
			require.Equal(t, "2024-03-09", tr.TentativeDeliveryDate)
		}
		seen[tr.Partner+"/"+tr.Status] = true
	}

	assert.Len(t, seen, 4, "every partner/status pair should come up")
}

func TestTrack_Concurrent(t *testing.T) {
	t.Parallel()

	g := NewGenerator()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Go(func() {
			for j := 0; j < 100; j++ {
				_ = g.Track(j)
			}
		})
	}
	wg.Wait()
}
