package log_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "github.com/kode4food/orgkit"
	"github.com/kode4food/orgkit/pkg/log"
)

func TestNewWriterBaseAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWriter(&buf, slog.LevelDebug)
	logger.Info("hello",
		log.ScriptID("enable-fido2"),
		slog.Int("count", 1))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, app.Name, got["service"])
	assert.Equal(t, app.Version, got["version"])
	assert.Equal(t, "enable-fido2", got["script_id"])
	assert.Equal(t, float64(1), got["count"])
	assert.Equal(t, "hello", got["msg"])
}

func TestNewWriterLevelGate(t *testing.T) {
	logger := log.NewWriter(io.Discard, slog.LevelWarn)
	ctx := context.Background()

	assert.False(t, logger.Handler().Enabled(ctx, slog.LevelInfo))
	assert.True(t, logger.Handler().Enabled(ctx, slog.LevelWarn))
}

func TestErrorAttr(t *testing.T) {
	attr := log.Error(errors.New("boom"))
	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, "boom", attr.Value.String())

	assert.Equal(t, "", log.Error(nil).Value.String())
}
