package xtags

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/omeyang/xlogmetrics/pkg/bridge/xevent"
)

func mustExtractor(t *testing.T, cfg Config) *Extractor {
	t.Helper()
	e, err := NewExtractor(cfg)
	require.NoError(t, err)
	return e
}

func TestNewExtractor_Validation(t *testing.T) {
	_, err := NewExtractor(Config{AllowedAttrs: []string{"logger"}})
	assert.ErrorIs(t, err, ErrReservedKey)

	_, err = NewExtractor(Config{AllowedAttrs: []string{""}})
	assert.ErrorIs(t, err, ErrEmptyKey)

	_, err = NewExtractor(Config{DeniedAttrs: []string{""}})
	assert.ErrorIs(t, err, ErrEmptyKey)

	_, err = NewExtractor(Config{MaxValueLength: -1})
	assert.ErrorIs(t, err, ErrInvalidMaxValueLength)

	_, err = NewExtractor(Config{LoggerDepth: -2})
	assert.ErrorIs(t, err, ErrInvalidLoggerDepth)
}

func TestExtract_ErrorEventWithoutAttrs(t *testing.T) {
	e := mustExtractor(t, Config{AllowedAttrs: []string{"tenant"}})
	ev := &xevent.Event{
		Level:  xevent.LevelError,
		Logger: "app.db",
		Error:  &xevent.ErrorInfo{Type: "TimeoutError"},
	}

	got := e.Extract(ev)
	assert.Equal(t, TagSet{
		{Key: KeyException, Value: "TimeoutError"},
		{Key: KeyLevel, Value: "error"},
		{Key: KeyLogger, Value: "app.db"},
	}, got)
}

func TestExtract_NotAllowListedAttrOmitted(t *testing.T) {
	e := mustExtractor(t, Config{AllowedAttrs: []string{"tenant"}})
	ev := &xevent.Event{
		Level:  xevent.LevelInfo,
		Logger: "app",
		Attrs:  map[string]string{"userId": "u-123", "tenant": "acme"},
	}

	got := e.Extract(ev)
	_, ok := got.Get("userId")
	assert.False(t, ok)
	v, ok := got.Get("tenant")
	assert.True(t, ok)
	assert.Equal(t, "acme", v)
	assert.Len(t, got, 3)
}

func TestExtract_DenyWinsOverAllow(t *testing.T) {
	e := mustExtractor(t, Config{
		AllowedAttrs: []string{"key1", "key2"},
		DeniedAttrs:  []string{"key1"},
	})
	assert.Equal(t, []string{"key2"}, e.AttrKeys())

	got := e.Extract(&xevent.Event{Attrs: map[string]string{"key1": "a", "key2": "b"}})
	_, ok := got.Get("key1")
	assert.False(t, ok)
}

func TestExtract_Sentinels(t *testing.T) {
	e := mustExtractor(t, Config{IncludeThread: true})

	got := e.Extract(nil)
	assert.Equal(t, map[string]string{
		KeyLevel:  "trace",
		KeyLogger: Unknown,
		KeyThread: Unknown,
	}, got.Map())

	got = e.Extract(&xevent.Event{Level: xevent.Level(99), Logger: "...", Error: &xevent.ErrorInfo{}})
	assert.Equal(t, Unknown, got.Map()[KeyLevel])
	assert.Equal(t, Unknown, got.Map()[KeyLogger])
	assert.Equal(t, Unknown, got.Map()[KeyException])
}

func TestAppendTags_ReusesBuffer(t *testing.T) {
	e := mustExtractor(t, Config{AllowedAttrs: []string{"region"}})
	ev := &xevent.Event{Level: xevent.LevelWarn, Logger: "app", Attrs: map[string]string{"region": "eu"}}

	buf := make(TagSet, 0, 8)
	got := e.AppendTags(buf, ev)
	assert.Equal(t, e.Extract(ev), got)
	assert.Same(t, &buf[:1][0], &got[0])

	prefix := TagSet{{Key: "zz", Value: "kept"}}
	got = e.AppendTags(prefix, ev)
	assert.Equal(t, "kept", got[0].Value)
	assert.Equal(t, e.Extract(ev), got[1:])

	assert.Zero(t, testing.AllocsPerRun(100, func() { buf = e.AppendTags(buf[:0], ev) }))
}

func TestExtract_TruncatesOnRuneBoundary(t *testing.T) {
	e := mustExtractor(t, Config{AllowedAttrs: []string{"path"}, MaxValueLength: 5})
	got := e.Extract(&xevent.Event{
		Logger: "abcdefgh",
		Attrs:  map[string]string{"path": "ab中文"}, // 2 + 3 + 3 字节
	})
	v, _ := got.Get("path")
	assert.Equal(t, "ab中", v)
	l, _ := got.Get(KeyLogger)
	assert.Equal(t, "abcde", l)
}

func TestExtract_EmptyAttrValueOmitted(t *testing.T) {
	e := mustExtractor(t, Config{AllowedAttrs: []string{"tenant"}})
	got := e.Extract(&xevent.Event{Attrs: map[string]string{"tenant": ""}})
	_, ok := got.Get("tenant")
	assert.False(t, ok)
}

func TestExtract_LoggerDepth(t *testing.T) {
	tests := []struct {
		depth int
		name  string
		want  string
	}{
		{0, "com.acme.billing.Invoice", "com.acme.billing.Invoice"},
		{1, "com.acme.billing.Invoice", "com"},
		{2, "com.acme.billing.Invoice", "com.acme"},
		{3, "com.acme", "com.acme"},
		{2, ".com.acme.x.", "com.acme"},
	}
	for _, tt := range tests {
		e := mustExtractor(t, Config{LoggerDepth: tt.depth})
		v, _ := e.Extract(&xevent.Event{Logger: tt.name}).Get(KeyLogger)
		assert.Equal(t, tt.want, v, "depth=%d name=%q", tt.depth, tt.name)
	}
}

func TestExtractor_TagKeys(t *testing.T) {
	e := mustExtractor(t, Config{AllowedAttrs: []string{"zone", "tenant", "tenant"}, IncludeThread: true})
	assert.Equal(t, []string{"exception", "level", "logger", "tenant", "thread", "zone"}, e.TagKeys())
}

func TestExtract_DeterministicProperty(t *testing.T) {
	e := mustExtractor(t, Config{AllowedAttrs: []string{"a", "b", "c"}, MaxValueLength: 16})

	rapid.Check(t, func(t *rapid.T) {
		attrs := rapid.MapOf(rapid.SampledFrom([]string{"a", "b", "c", "d", "userId"}), rapid.String()).Draw(t, "attrs")
		ev := xevent.Event{
			Level:   xevent.Level(rapid.IntRange(0, 4).Draw(t, "level")),
			Logger:  rapid.StringMatching(`[a-z]{0,5}(\.[a-z]{1,5}){0,3}`).Draw(t, "logger"),
			Message: rapid.String().Draw(t, "msg"),
			Attrs:   attrs,
		}
		// 复制属性 map，确认结果只取决于内容而非 map 身份或消息
		clone := ev
		clone.Attrs = make(map[string]string, len(attrs))
		for k, v := range attrs {
			clone.Attrs[k] = v
		}
		clone.Message = "different message"

		first := e.Extract(&ev)
		second := e.Extract(&clone)
		if !first.Equal(second) {
			t.Fatalf("non-deterministic tags: %v vs %v", first, second)
		}
		for i := 1; i < len(first); i++ {
			if strings.Compare(first[i-1].Key, first[i].Key) >= 0 {
				t.Fatalf("tags not strictly sorted: %v", first)
			}
		}
		if _, ok := first.Get("userId"); ok {
			t.Fatalf("non allow-listed key leaked: %v", first)
		}
	})
}
