package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLevelString(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"INFO", false},
		{"", false},
		{"warning", false},
		{" error ", false},
		{"verbose", true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			err := SetLevelString(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
	require.NoError(t, SetLevelString("info"))
}

func TestLogger_WritesFields(t *testing.T) {
	require.NoError(t, SetLevelString("info"))
	var buf bytes.Buffer
	log := New(&buf).Named("evaluator")

	log.Info(context.Background(), "evaluated personas", Int("count", 4), Float64("score", 0.5), Err(errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, "evaluated personas")
	assert.Contains(t, out, "component=evaluator")
	assert.Contains(t, out, "count=4")
	assert.Contains(t, out, "error=boom")
}

func TestLogger_RespectsLevel(t *testing.T) {
	require.NoError(t, SetLevelString("warn"))
	defer func() { _ = SetLevelString("info") }()

	var buf bytes.Buffer
	log := New(&buf)
	log.Info(context.Background(), "hidden")
	log.Debug(context.Background(), "hidden too")
	log.Warn(context.Background(), "shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestGet_LazyInit(t *testing.T) {
	assert.NotNil(t, Get())
	assert.NotNil(t, Named("x"))
	assert.NotNil(t, Nop())
}
