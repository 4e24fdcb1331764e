package callback

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Frame layout, all integers little-endian:
//
//	┌──────────────────────────────┐
//	│ Length (4 bytes) of Payload  │
//	├──────────────────────────────┤
//	│ Kind (4 bytes)               │
//	├──────────────────────────────┤
//	│ Payload (Length bytes)       │
//	└──────────────────────────────┘
const (
	headerSize = 8
	// MaxPayload bounds a single frame; larger frames close the connection.
	MaxPayload = 1 << 20
)

// Kind identifies the message carried by a frame.
type Kind uint32

// Message kinds.
const (
	KindEnumSessions Kind = 1
	KindOpen         Kind = 2
	KindCreatePlayer Kind = 3
	KindDeletePlayer Kind = 4
	KindSend         Kind = 5
	KindReply        Kind = 6
)

// String returns the message name.
func (k Kind) String() string {
	switch k {
	case KindEnumSessions:
		return "EnumSessions"
	case KindOpen:
		return "Open"
	case KindCreatePlayer:
		return "CreatePlayer"
	case KindDeletePlayer:
		return "DeletePlayer"
	case KindSend:
		return "Send"
	case KindReply:
		return "Reply"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(k))
	}
}

var (
	// ErrFrameTooLarge is returned for frames whose payload exceeds MaxPayload.
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrShortPayload is returned when a payload is too short for its kind.
	ErrShortPayload = errors.New("payload too short")
)

type frame struct {
	kind    Kind
	payload []byte
}

func readFrame(r io.Reader) (frame, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return frame{}, err
	}
	length := binary.LittleEndian.Uint32(header[0:4])
	if length > MaxPayload {
		return frame{}, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, length)
	}
	f := frame{
		kind:    Kind(binary.LittleEndian.Uint32(header[4:8])),
		payload: make([]byte, length),
	}
	if _, err := io.ReadFull(r, f.payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return frame{}, err
	}
	return f, nil
}

func writeFrame(w io.Writer, kind Kind, payload []byte) error {
	if len(payload) > MaxPayload {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}
	buf := make([]byte, headerSize+len(payload))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(payload)))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(kind))
	copy(buf[headerSize:], payload)
	_, err := w.Write(buf)
	return err
}

func u32(p []byte, i int) uint32 {
	return binary.LittleEndian.Uint32(p[i*4 : i*4+4])
}

func needWords(kind Kind, p []byte, n int) error {
	if len(p) < n*4 {
		return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShortPayload, kind, n*4, len(p))
	}
	return nil
}

func decodeCreatePlayer(p []byte) (*CreatePlayer, error) {
	if err := needWords(KindCreatePlayer, p, 2); err != nil {
		return nil, err
	}
	return &CreatePlayer{Player: DPID(u32(p, 0)), Flags: u32(p, 1)}, nil
}

func decodeDeletePlayer(p []byte) (*DeletePlayer, error) {
	if err := needWords(KindDeletePlayer, p, 2); err != nil {
		return nil, err
	}
	return &DeletePlayer{Player: DPID(u32(p, 0)), Flags: u32(p, 1)}, nil
}

func decodeSend(p []byte) (*Send, error) {
	if err := needWords(KindSend, p, 3); err != nil {
		return nil, err
	}
	return &Send{From: DPID(u32(p, 0)), To: DPID(u32(p, 1)), Flags: u32(p, 2), Data: p[12:]}, nil
}

func decodeReply(p []byte) (*Reply, error) {
	if err := needWords(KindReply, p, 1); err != nil {
		return nil, err
	}
	return &Reply{NameServer: DPID(u32(p, 0)), Data: p[4:]}, nil
}
