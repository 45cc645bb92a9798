package xkey

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/omeyang/xlogmetrics/pkg/bridge/xtags"
)

func loggerTags(level, logger string) xtags.TagSet {
	return xtags.TagSet{{Key: xtags.KeyLevel, Value: level}, {Key: xtags.KeyLogger, Value: logger}}
}

func TestNewResolver(t *testing.T) {
	r, err := NewResolver(eventsFamily, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxKeys, r.MaxKeys())
	assert.Equal(t, eventsFamily, r.Family())

	_, err = NewResolver(eventsFamily, -1)
	assert.ErrorIs(t, err, ErrInvalidMaxKeys)

	_, err = NewResolver(Family{Kind: KindCounter}, 10)
	assert.ErrorIs(t, err, ErrEmptyFamily)
}

func TestResolver_CeilingTwo(t *testing.T) {
	r, err := NewResolver(eventsFamily, 2)
	require.NoError(t, err)

	a, over := r.Resolve(loggerTags("info", "a"))
	assert.False(t, over)
	b, over := r.Resolve(loggerTags("info", "b"))
	assert.False(t, over)
	c, over := r.Resolve(loggerTags("info", "c"))
	assert.True(t, over)

	assert.Equal(t, map[string]string{"level": "info", "logger": OverflowValue}, c.Tags().Map())
	assert.False(t, c.Equal(a))
	assert.False(t, c.Equal(b))

	// 已接纳的键不受溢出影响
	again, over := r.Resolve(loggerTags("info", "a"))
	assert.False(t, over)
	assert.True(t, again.Equal(a))

	// 溢出键按级别区分，且不占用名额
	d, over := r.Resolve(loggerTags("error", "d"))
	assert.True(t, over)
	assert.Equal(t, "error", d.Tags().Map()["level"])
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, int64(2), r.Overflowed())
}

func TestResolver_OverflowRewritesEveryNonLevelTag(t *testing.T) {
	r, err := NewResolver(eventsFamily, 1)
	require.NoError(t, err)
	r.Resolve(loggerTags("info", "first"))

	tags := xtags.TagSet{
		{Key: "exception", Value: "TimeoutError"},
		{Key: "level", Value: "warn"},
		{Key: "logger", Value: "x"},
		{Key: "tenant", Value: "acme"},
	}
	k, over := r.Resolve(tags)
	require.True(t, over)
	assert.Equal(t, map[string]string{
		"exception": OverflowValue,
		"level":     "warn",
		"logger":    OverflowValue,
		"tenant":    OverflowValue,
	}, k.Tags().Map())
	// 原始标签集未被修改
	assert.Equal(t, "x", tags[2].Value)
}

func TestResolver_ConcurrentNeverOvershoots(t *testing.T) {
	const ceiling = 50
	r, err := NewResolver(eventsFamily, ceiling)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				r.Resolve(loggerTags("info", fmt.Sprintf("logger-%d-%d", g, i%100)))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, ceiling, r.Len())
	assert.Equal(t, ceiling, r.stored())
}

func TestResolver_ConcurrentSameKey(t *testing.T) {
	r, err := NewResolver(eventsFamily, 10)
	require.NoError(t, err)

	var wg sync.WaitGroup
	ids := make([]string, 64)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k, _ := r.Resolve(loggerTags("info", "same"))
			ids[i] = k.ID()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, r.Len())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestResolver_Reset(t *testing.T) {
	r, err := NewResolver(eventsFamily, 1)
	require.NoError(t, err)
	r.Resolve(loggerTags("info", "a"))
	r.Resolve(loggerTags("info", "b"))
	require.Equal(t, int64(1), r.Overflowed())

	r.Reset()
	assert.Zero(t, r.Len())
	assert.Zero(t, r.Overflowed())
	_, over := r.Resolve(loggerTags("info", "b"))
	assert.False(t, over)
}

func TestResolver_IdempotentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ceiling := rapid.IntRange(1, 8).Draw(t, "ceiling")
		r, err := NewResolver(eventsFamily, ceiling)
		if err != nil {
			t.Fatal(err)
		}
		loggers := rapid.SliceOfN(rapid.StringMatching(`[a-e]{1,2}`), 1, 40).Draw(t, "loggers")

		first := make(map[string]Key)
		for _, l := range loggers {
			k, _ := r.Resolve(loggerTags("info", l))
			if prev, ok := first[l]; ok && !prev.Equal(k) {
				t.Fatalf("logger %q resolved to %s then %s", l, prev, k)
			}
			first[l] = k
		}
		if r.Len() > ceiling {
			t.Fatalf("len %d exceeds ceiling %d", r.Len(), ceiling)
		}
	})
}

func TestResolver_KeyDoesNotAliasInput(t *testing.T) {
	r, err := NewResolver(eventsFamily, 1)
	require.NoError(t, err)

	tags := loggerTags("info", "a")
	k, _ := r.Resolve(tags)
	tags[1].Value = "mutated"
	assert.Equal(t, "a", k.Tags()[1].Value)

	over := loggerTags("warn", "b")
	ovk, overflowed := r.Resolve(over)
	require.True(t, overflowed)
	over[0].Value = "mutated"
	assert.Equal(t, "warn", ovk.Tags()[0].Value)
}

func TestResolver_OverflowKeyCached(t *testing.T) {
	r, err := NewResolver(eventsFamily, 1)
	require.NoError(t, err)
	r.Resolve(loggerTags("info", "a"))

	k1, _ := r.Resolve(loggerTags("info", "b"))
	k2, _ := r.Resolve(loggerTags("info", "c"))
	assert.True(t, k1.Equal(k2))
	assert.Equal(t, 1, r.overflow.len())
	assert.Equal(t, int64(2), r.Overflowed())
}

func TestResolver_HitDoesNotAllocate(t *testing.T) {
	r, err := NewResolver(eventsFamily, 1)
	require.NoError(t, err)
	seen := loggerTags("info", "app.http")
	other := loggerTags("info", "app.db")
	r.Resolve(seen)
	r.Resolve(other)

	assert.Zero(t, testing.AllocsPerRun(100, func() { r.Resolve(seen) }))
	assert.Zero(t, testing.AllocsPerRun(100, func() { r.Resolve(other) }))
}

func BenchmarkResolver_Hit(b *testing.B) {
	r, _ := NewResolver(eventsFamily, 0)
	tags := loggerTags("info", "app.http")
	r.Resolve(tags)
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			r.Resolve(tags)
		}
	})
}
