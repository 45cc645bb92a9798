package xinstrument

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xlogmetrics/pkg/bridge/xkey"
	"github.com/omeyang/xlogmetrics/pkg/bridge/xtags"
)

var testFamily = xkey.Family{Name: "log.events", Kind: xkey.KindCounter}

func testKey(logger string) xkey.Key {
	return xkey.NewKey(testFamily, xtags.TagSet{
		{Key: xtags.KeyLevel, Value: "info"},
		{Key: xtags.KeyLogger, Value: logger},
	})
}

type countingCounter struct{ n atomic.Int64 }

func (c *countingCounter) Add(n int64) { c.n.Add(n) }

func TestNewCache_Validation(t *testing.T) {
	_, err := NewCache[Counter](nil)
	assert.ErrorIs(t, err, ErrNilCreate)

	create := func(xkey.Key) (Counter, error) { return &countingCounter{}, nil }
	_, err = NewCache(create, WithShards(3))
	assert.ErrorIs(t, err, ErrInvalidShards)
	_, err = NewCache(create, WithShards(0))
	assert.ErrorIs(t, err, ErrInvalidShards)

	c, err := NewCache(create, WithShards(1), nil)
	require.NoError(t, err)
	assert.Len(t, c.shards, 1)
}

func TestCache_HitDoesNotRegister(t *testing.T) {
	var calls atomic.Int64
	c, err := NewCache(func(xkey.Key) (Counter, error) {
		calls.Add(1)
		return &countingCounter{}, nil
	})
	require.NoError(t, err)

	first, err := c.GetOrCreate(testKey("app"))
	require.NoError(t, err)
	second, err := c.GetOrCreate(testKey("app"))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(1), c.Registrations())

	got, ok := c.Get(testKey("app"))
	assert.True(t, ok)
	assert.Same(t, first, got)
	_, ok = c.Get(testKey("other"))
	assert.False(t, ok)
}

func TestCache_ConcurrentMissRegistersOnce(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	c, err := NewCache(func(xkey.Key) (Counter, error) {
		calls.Add(1)
		<-release
		return &countingCounter{}, nil
	})
	require.NoError(t, err)

	const n = 64
	results := make([]Counter, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrCreate(testKey("hot"))
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestCache_FailureIsNotCached(t *testing.T) {
	boom := errors.New("backend down")
	var fail atomic.Bool
	fail.Store(true)
	c, err := NewCache(func(xkey.Key) (Counter, error) {
		if fail.Load() {
			return nil, boom
		}
		return &countingCounter{}, nil
	})
	require.NoError(t, err)

	_, err = c.GetOrCreate(testKey("app"))
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, c.Len())

	fail.Store(false)
	v, err := c.GetOrCreate(testKey("app"))
	require.NoError(t, err)
	assert.NotNil(t, v)
	assert.Equal(t, 1, c.Len())
}

func TestCache_Reset(t *testing.T) {
	c, err := NewCache(func(xkey.Key) (Counter, error) { return &countingCounter{}, nil })
	require.NoError(t, err)
	for _, l := range []string{"a", "b", "c"} {
		_, err := c.GetOrCreate(testKey(l))
		require.NoError(t, err)
	}
	require.Equal(t, 3, c.Len())

	c.Reset()
	assert.Zero(t, c.Len())
	assert.Zero(t, c.Registrations())
	_, ok := c.Get(testKey("a"))
	assert.False(t, ok)
}

func BenchmarkCache_Hit(b *testing.B) {
	c, _ := NewCache(func(xkey.Key) (Counter, error) { return &countingCounter{}, nil })
	key := testKey("app.http")
	_, _ = c.GetOrCreate(key)
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			v, _ := c.GetOrCreate(key)
			v.Add(1)
		}
	})
}
