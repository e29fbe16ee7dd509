package commit

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_StartEnd(t *testing.T) {
	r := NewRegistry()

	level, ok := r.LockLevel("conn1")
	require.False(t, ok)
	require.Equal(t, Inactive, level)

	require.NoError(t, r.Start("conn1", RepeatableRead))
	require.ErrorIs(t, r.Start("conn1", ReadCommitted), ErrAlreadyActive)
	require.ErrorIs(t, r.Start("conn2", 9), ErrLockLevel)

	level, ok = r.LockLevel("conn1")
	require.True(t, ok)
	require.Equal(t, RepeatableRead, level)
	require.True(t, r.IsActive("conn1"))
	require.Equal(t, []string{"conn1"}, r.Active())

	require.NoError(t, r.End("conn1"))
	require.ErrorIs(t, r.End("conn1"), ErrNotActive)
	require.False(t, r.IsActive("conn1"))
}

func TestRegistry_Nil(t *testing.T) {
	var r *Registry
	level, ok := r.LockLevel("conn1")
	require.False(t, ok)
	require.Equal(t, Inactive, level)
}

func TestRegistry_inGoroutines(t *testing.T) {
	r := NewRegistry()

	goroutinesCount := 50
	var wg sync.WaitGroup
	wg.Add(goroutinesCount)
	for i := 0; i < goroutinesCount; i++ {
		go func(i int) {
			defer wg.Done()
			conn := "conn" + strconv.Itoa(i)
			require.NoError(t, r.Start(conn, ReadCommitted))
			require.True(t, r.IsActive(conn))
			if i%2 == 0 {
				require.NoError(t, r.End(conn))
			}
		}(i)
	}
	wg.Wait()

	require.Len(t, r.Active(), goroutinesCount/2)
}
