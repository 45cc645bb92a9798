package xevent

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel_OrderAndString(t *testing.T) {
	ordered := []Level{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError}
	names := []string{"trace", "debug", "info", "warn", "error"}
	for i, l := range ordered {
		assert.Equal(t, names[i], l.String())
		assert.True(t, l.Valid())
		if i > 0 {
			assert.Less(t, ordered[i-1], l)
		}
	}
	assert.Equal(t, "level(9)", Level(9).String())
	assert.False(t, Level(-1).Valid())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"trace", LevelTrace},
		{" DEBUG ", LevelDebug},
		{"Info", LevelInfo},
		{"warning", LevelWarn},
		{"fatal", LevelError},
		{"err", LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := ParseLevel("verbose")
	require.ErrorIs(t, err, ErrUnknownLevel)
	assert.Equal(t, LevelInfo, got)
}

func TestLevel_TextRoundTrip(t *testing.T) {
	var l Level
	require.NoError(t, l.UnmarshalText([]byte("warn")))
	assert.Equal(t, LevelWarn, l)

	b, err := LevelError.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "error", string(b))

	_, err = Level(42).MarshalText()
	assert.ErrorIs(t, err, ErrUnknownLevel)
	assert.ErrorIs(t, l.UnmarshalText([]byte("nope")), ErrUnknownLevel)
}

func TestFromSlog(t *testing.T) {
	tests := []struct {
		in   slog.Level
		want Level
	}{
		{slog.LevelDebug - 4, LevelTrace},
		{slog.LevelDebug, LevelDebug},
		{slog.LevelDebug + 2, LevelDebug},
		{slog.LevelInfo, LevelInfo},
		{slog.LevelWarn, LevelWarn},
		{slog.LevelError, LevelError},
		{slog.LevelError + 4, LevelError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FromSlog(tt.in), "slog level %v", tt.in)
	}
	for _, l := range []Level{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError} {
		assert.Equal(t, l, FromSlog(l.Slog()))
	}
}
