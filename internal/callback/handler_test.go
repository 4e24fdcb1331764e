package callback

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogHandler(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := NewLogHandler(zap.New(core).Sugar())

	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()
	c := &Controller{conn: server}

	ctx := context.Background()
	require.NoError(t, h.CreatePlayer(ctx, c, &CreatePlayer{Player: 4}))
	require.NoError(t, h.Send(ctx, c, &Send{From: 4, To: 5, Data: []byte("abc")}))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "CreatePlayer", entries[0].Message)
	assert.Equal(t, "Send", entries[1].Message)
	assert.Equal(t, int64(3), entries[1].ContextMap()["bytes"])
}
