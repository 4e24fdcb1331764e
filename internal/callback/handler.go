package callback

import (
	"context"

	"go.uber.org/zap"
)

// DPID identifies a DirectPlay player or group.
type DPID uint32

// EnumSessions asks the service provider to enumerate sessions.
type EnumSessions struct {
	Data []byte
}

// Open asks the service provider to open (host or join) a session.
type Open struct {
	Data []byte
}

// CreatePlayer announces a new local player.
type CreatePlayer struct {
	Player DPID
	Flags  uint32
}

// DeletePlayer announces that a player left.
type DeletePlayer struct {
	Player DPID
	Flags  uint32
}

// Send carries a game message between players.
type Send struct {
	From  DPID
	To    DPID
	Flags uint32
	Data  []byte
}

// Reply carries the application's reply to the name server.
type Reply struct {
	NameServer DPID
	Data       []byte
}

// Handler receives the service provider messages relayed by dprun. A
// returned error is logged; the connection stays open.
type Handler interface {
	EnumSessions(ctx context.Context, c *Controller, msg *EnumSessions) error
	Open(ctx context.Context, c *Controller, msg *Open) error
	CreatePlayer(ctx context.Context, c *Controller, msg *CreatePlayer) error
	DeletePlayer(ctx context.Context, c *Controller, msg *DeletePlayer) error
	Send(ctx context.Context, c *Controller, msg *Send) error
	Reply(ctx context.Context, c *Controller, msg *Reply) error
}

// NopHandler ignores every message. Embed it to implement only the messages
// you care about.
type NopHandler struct{}

var _ Handler = NopHandler{}

func (NopHandler) EnumSessions(context.Context, *Controller, *EnumSessions) error { return nil }
func (NopHandler) Open(context.Context, *Controller, *Open) error                 { return nil }
func (NopHandler) CreatePlayer(context.Context, *Controller, *CreatePlayer) error { return nil }
func (NopHandler) DeletePlayer(context.Context, *Controller, *DeletePlayer) error { return nil }
func (NopHandler) Send(context.Context, *Controller, *Send) error                 { return nil }
func (NopHandler) Reply(context.Context, *Controller, *Reply) error               { return nil }

// LogHandler logs every message it receives and does nothing else.
type LogHandler struct {
	Logger *zap.SugaredLogger
}

var _ Handler = (*LogHandler)(nil)

// NewLogHandler creates a LogHandler writing to logger.
func NewLogHandler(logger *zap.SugaredLogger) *LogHandler {
	return &LogHandler{Logger: logger}
}

func (h *LogHandler) EnumSessions(_ context.Context, c *Controller, msg *EnumSessions) error {
	h.Logger.Infow("EnumSessions", "remote", c.RemoteAddr(), "bytes", len(msg.Data))
	return nil
}

func (h *LogHandler) Open(_ context.Context, c *Controller, msg *Open) error {
	h.Logger.Infow("Open", "remote", c.RemoteAddr(), "bytes", len(msg.Data))
	return nil
}

func (h *LogHandler) CreatePlayer(_ context.Context, c *Controller, msg *CreatePlayer) error {
	h.Logger.Infow("CreatePlayer", "remote", c.RemoteAddr(), "player", msg.Player, "flags", msg.Flags)
	return nil
}

func (h *LogHandler) DeletePlayer(_ context.Context, c *Controller, msg *DeletePlayer) error {
	h.Logger.Infow("DeletePlayer", "remote", c.RemoteAddr(), "player", msg.Player, "flags", msg.Flags)
	return nil
}

func (h *LogHandler) Send(_ context.Context, c *Controller, msg *Send) error {
	h.Logger.Infow("Send", "remote", c.RemoteAddr(), "from", msg.From, "to", msg.To, "flags", msg.Flags, "bytes", len(msg.Data))
	return nil
}

func (h *LogHandler) Reply(_ context.Context, c *Controller, msg *Reply) error {
	h.Logger.Infow("Reply", "remote", c.RemoteAddr(), "nameServer", msg.NameServer, "bytes", len(msg.Data))
	return nil
}
