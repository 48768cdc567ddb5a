package dedup

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSet_AdmitOnce(t *testing.T) {
	set := New(time.Hour)

	require.True(t, set.Admit("abc"))
	require.False(t, set.Admit("abc"))
	require.Equal(t, 1, set.Len())
}

func TestSet_WindowEviction(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	set := New(time.Hour, WithClock(clock))
	require.True(t, set.Admit("abc"))

	// Still inside the window.
	now = now.Add(30 * time.Minute)
	require.False(t, set.Admit("abc"))

	// Past the retention horizon the fingerprint is forgotten.
	now = now.Add(2 * time.Hour)
	require.True(t, set.Admit("abc"))
	require.Equal(t, 1, set.Len())
}

func TestSet_ConcurrentAdmit(t *testing.T) {
	set := New(time.Hour)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if set.Admit("same-id") {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, admitted)
}
