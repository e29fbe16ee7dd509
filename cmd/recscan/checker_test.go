package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/S0me0neR0man/recaccess/internal/channel"
	"github.com/S0me0neR0man/recaccess/internal/host"
	"github.com/S0me0neR0man/recaccess/internal/hostfile"
	"github.com/S0me0neR0man/recaccess/internal/recfile"
)

func runPattern(t *testing.T, store *hostfile.Store, p pattern, file string, blockingFactor int) ([]int64, int) {
	meter := host.NewMeter()
	ch := host.NewChain(meter.Middleware()).Then(channel.NewNative(store, zap.NewNop()))
	f := recfile.New(ch, recfile.Options{Name: file, Locale: language.English}, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, f.Open(ctx, host.ReadOnly, blockingFactor))
	meter.Reset()
	numbers, err := p.run(ctx, f)
	require.NoError(t, err)
	rounds := meter.Total()
	require.NoError(t, f.Close(ctx))
	return numbers, rounds
}

func TestPatterns_BlockedMatchesUnblocked(t *testing.T) {
	store := hostfile.NewStore(language.English, zap.NewNop())
	require.NoError(t, store.SeedDemo(12))

	for _, file := range []string{"ITEMS", "CUSTOMERS"} {
		for _, p := range patterns {
			t.Run(file+"/"+p.name, func(t *testing.T) {
				blocked, blockedRounds := runPattern(t, store, p, file, 5)
				unblocked, unblockedRounds := runPattern(t, store, p, file, 1)
				require.Equal(t, unblocked, blocked)
				require.Empty(t, compare(blocked, unblocked))
				if p.name != "zigzag" {
					require.Less(t, blockedRounds, unblockedRounds)
				}
			})
		}
	}
}

func TestPatterns_Zigzag(t *testing.T) {
	store := hostfile.NewStore(language.English, zap.NewNop())
	require.NoError(t, store.SeedDemo(12))

	numbers, _ := runPattern(t, store, pattern{name: "zigzag", run: zigzag}, "ITEMS", 5)
	require.Equal(t, []int64{1, 2, 3, 4, 3, 4, 5, 6, 5, 6, 7, 8, 7, 8, 9, 10, 9, 10, 11, 12, 11, 12}, numbers)
}

func TestCompare(t *testing.T) {
	require.Empty(t, compare([]int64{1, 2}, []int64{1, 2}))
	require.Contains(t, compare([]int64{1, 3}, []int64{1, 2}), "read #1")
	require.Contains(t, compare([]int64{1, 2, 3}, []int64{1, 2}), "extra")
	require.Contains(t, compare([]int64{1}, []int64{1, 2}), "misses")
}

func TestNewLogger(t *testing.T) {
	debug, err := newLogger(true)
	require.NoError(t, err)
	require.True(t, debug.Core().Enabled(zap.DebugLevel))

	prod, err := newLogger(false)
	require.NoError(t, err)
	require.False(t, prod.Core().Enabled(zap.DebugLevel))
	require.True(t, prod.Core().Enabled(zap.InfoLevel))
}
