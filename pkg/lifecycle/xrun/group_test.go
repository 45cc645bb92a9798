package xrun

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xlogmetrics/pkg/observability/xlog"
)

var errBoom = errors.New("boom")

func TestGroup_ErrorCancelsOthers(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := xlog.New().SetOutput(&buf).Build()
	require.NoError(t, err)

	g, _ := NewGroup(context.Background(), WithLogger(logger))
	g.Go("waiter", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	g.Go("failer", func(context.Context) error { return errBoom })

	assert.ErrorIs(t, g.Wait(), errBoom)
	assert.Contains(t, buf.String(), "service=failer")
	assert.Contains(t, buf.String(), "boom")
}

func TestGroup_CancelCause(t *testing.T) {
	tests := []struct {
		name  string
		cause error
		want  error
	}{
		{"stop", ErrStop, nil},
		{"nil", nil, nil},
		{"custom", errBoom, errBoom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := NewGroup(context.Background())
			g.Go("waiter", func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			})
			g.Cancel(tt.cause)
			err := g.Wait()
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestGroup_ParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g, _ := NewGroup(ctx)
	g.Go("waiter", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	cancel()
	assert.NoError(t, g.Wait())
}

func TestGroup_InternalCanceledIsReturned(t *testing.T) {
	g, _ := NewGroup(context.Background())
	g.Go("self", func(context.Context) error { return context.Canceled })
	assert.ErrorIs(t, g.Wait(), context.Canceled)
}

func TestGroup_NilFuncAndContext(t *testing.T) {
	//nolint:staticcheck // nil context 归一化
	g, _ := NewGroup(nil, nil)
	g.Go("nil", nil)
	assert.ErrorIs(t, g.Wait(), ErrNilFunc)
}
