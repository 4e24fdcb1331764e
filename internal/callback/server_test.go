package callback

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingHandler struct {
	NopHandler
	sends   chan *Send
	players chan *CreatePlayer
	enums   chan *EnumSessions
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		sends:   make(chan *Send, 4),
		players: make(chan *CreatePlayer, 4),
		enums:   make(chan *EnumSessions, 4),
	}
}

func (h *recordingHandler) Send(_ context.Context, _ *Controller, msg *Send) error {
	h.sends <- msg
	return nil
}

func (h *recordingHandler) CreatePlayer(_ context.Context, _ *Controller, msg *CreatePlayer) error {
	h.players <- msg
	return nil
}

func (h *recordingHandler) EnumSessions(_ context.Context, c *Controller, msg *EnumSessions) error {
	h.enums <- msg
	return c.Send(KindReply, []byte{1, 0, 0, 0, 'o', 'k'})
}

func startTestServer(t *testing.T, h Handler) (*Running, *StopController) {
	t.Helper()
	running, stop, err := NewServer("127.0.0.1", 0, h).Start()
	require.NoError(t, err)
	t.Cleanup(func() {
		stop.Stop()
		<-running.Done()
	})
	return running, stop
}

func words(vals ...uint32) []byte {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return buf
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for handler")
		var zero T
		return zero
	}
}

func TestServerDispatchesMessages(t *testing.T) {
	h := newRecordingHandler()
	running, _ := startTestServer(t, h)

	conn, err := net.Dial("tcp", running.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, writeFrame(conn, KindCreatePlayer, words(7, 0x20)))
	payload := append(words(1, 2, 0), []byte("hello")...)
	require.NoError(t, writeFrame(conn, KindSend, payload))

	player := receive(t, h.players)
	assert.Equal(t, DPID(7), player.Player)
	assert.Equal(t, uint32(0x20), player.Flags)

	send := receive(t, h.sends)
	assert.Equal(t, DPID(1), send.From)
	assert.Equal(t, DPID(2), send.To)
	assert.Equal(t, []byte("hello"), send.Data)
}

func TestControllerRepliesOnSameConnection(t *testing.T) {
	h := newRecordingHandler()
	running, _ := startTestServer(t, h)

	conn, err := net.Dial("tcp", running.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, writeFrame(conn, KindEnumSessions, []byte{0xAA}))
	enum := receive(t, h.enums)
	assert.Equal(t, []byte{0xAA}, enum.Data)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	f, err := readFrame(conn)
	require.NoError(t, err)
	assert.Equal(t, KindReply, f.kind)
	assert.Equal(t, []byte{1, 0, 0, 0, 'o', 'k'}, f.payload)
}

func TestServerSkipsMalformedMessages(t *testing.T) {
	h := newRecordingHandler()
	running, _ := startTestServer(t, h)

	conn, err := net.Dial("tcp", running.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, writeFrame(conn, KindSend, []byte{1, 2}))
	require.NoError(t, writeFrame(conn, Kind(99), []byte("?")))
	require.NoError(t, writeFrame(conn, KindCreatePlayer, words(3, 0)))

	player := receive(t, h.players)
	assert.Equal(t, DPID(3), player.Player)
	assert.Empty(t, h.sends)
}

func TestServerClosesOversizedFrames(t *testing.T) {
	running, _ := startTestServer(t, NopHandler{})

	conn, err := net.Dial("tcp", running.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(words(MaxPayload+1, uint32(KindSend)))
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err = conn.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}

func TestStopIsIdempotentAndWaitReleases(t *testing.T) {
	running, stop, err := NewServer("127.0.0.1", 0, NopHandler{}).Start()
	require.NoError(t, err)

	conn, err := net.Dial("tcp", running.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	select {
	case <-running.Done():
		t.Fatal("server finished before stop")
	default:
	}

	stop.Stop()
	stop.Stop()
	require.NoError(t, running.Wait())

	_, err = net.DialTimeout("tcp", running.Addr().String(), time.Second)
	assert.Error(t, err)
}

func TestStartPortConflict(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	_, _, err = NewServer("127.0.0.1", port, NopHandler{}).Start()
	assert.Error(t, err)
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, KindOpen, []byte("session")))
	assert.Equal(t, 8+len("session"), buf.Len())

	f, err := readFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, KindOpen, f.kind)
	assert.Equal(t, []byte("session"), f.payload)
}

func TestReadFrameTruncated(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(words(10, uint32(KindOpen)))
	buf.WriteString("abc")

	_, err := readFrame(&buf)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "Send", KindSend.String())
	assert.Equal(t, "Unknown(42)", Kind(42).String())
}
