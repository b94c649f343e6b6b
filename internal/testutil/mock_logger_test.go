package testutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/aopwiki-graph/internal/testutil"
)

func TestMockLogger(t *testing.T) {
	logger := testutil.NewMockLogger()
	logger.Info("test info", logging.String("key", "value"))

	messages := logger.GetMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, "info", messages[0].Level)
	v, ok := messages[0].Field("key")
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	logger.Clear()
	assert.Empty(t, logger.GetMessages())

	logger.Error("test error")
	assert.True(t, logger.HasMessage("error", "test error"))
	assert.False(t, logger.HasMessage("info", "test info"))
}

func TestMockLogger_DerivedShareRecord(t *testing.T) {
	root := testutil.NewMockLogger()
	child := root.Named("conversion").With(logging.RunID("r1")).Named("export")
	child.Warn("slow", logging.Int("n", 3))

	messages := root.GetMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, "conversion.export", messages[0].Logger)
	id, _ := messages[0].Field("run_id")
	assert.Equal(t, "r1", id)
	assert.Equal(t, 1, root.Count("warn"))
}
