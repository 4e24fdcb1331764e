// Package session describes a dprun session: what to launch (Spec, built with
// a Builder) and what happened to past launches (Record, persisted by Store).
package session

import (
	"github.com/faize-ai/dplaunch/internal/address"
	"github.com/faize-ai/dplaunch/internal/callback"
	"github.com/faize-ai/dplaunch/internal/guid"
)

// Mode is either hosting or joining a session.
type Mode struct {
	join       bool
	session    guid.GUID
	hasSession bool
}

// Host hosts a session. If id is nil, dprun generates the session GUID.
func Host(id *guid.GUID) Mode {
	if id == nil {
		return Mode{}
	}
	return Mode{session: *id, hasSession: true}
}

// Join joins the session with the given GUID.
func Join(id guid.GUID) Mode {
	return Mode{join: true, session: id, hasSession: true}
}

// IsJoin reports whether this mode joins an existing session.
func (m Mode) IsJoin() bool {
	return m.join
}

// Session returns the session GUID, if one was given.
func (m Mode) Session() (guid.GUID, bool) {
	return m.session, m.hasSession
}

// Args returns the mode's command line tokens.
func (m Mode) Args() []string {
	switch {
	case m.join:
		return []string{"--join", m.session.String()}
	case m.hasSession:
		return []string{"--host", m.session.String()}
	default:
		return []string{"--host"}
	}
}

// String returns "host" or "join".
func (m Mode) String() string {
	if m.join {
		return "join"
	}
	return "host"
}

// Spec is a validated description of one dprun launch. It is created by
// Builder.Finish and never changes afterwards.
type Spec struct {
	mode            Mode
	playerName      string
	provider        guid.Ref
	handler         callback.Handler
	application     guid.GUID
	address         []address.Part
	sessionName     *string
	sessionPassword *string
	dir             string
}

// Mode returns the host/join mode.
func (s *Spec) Mode() Mode { return s.mode }

// PlayerName returns the in-game name of the local player.
func (s *Spec) PlayerName() string { return s.playerName }

// Provider returns the service provider.
func (s *Spec) Provider() guid.Ref { return s.provider }

// Application returns the GUID of the game to start.
func (s *Spec) Application() guid.GUID { return s.application }

// Handler returns the callback handler, or nil.
func (s *Spec) Handler() callback.Handler { return s.handler }

// HasHandler reports whether messages are relayed to a callback handler.
func (s *Spec) HasHandler() bool { return s.handler != nil }

// Address returns a copy of the address parts in insertion order.
func (s *Spec) Address() []address.Part {
	return cloneParts(s.address)
}

// SessionName returns the session name, if set.
func (s *Spec) SessionName() (string, bool) {
	if s.sessionName == nil {
		return "", false
	}
	return *s.sessionName, true
}

// SessionPassword returns the session password, if set.
func (s *Spec) SessionPassword() (string, bool) {
	if s.sessionPassword == nil {
		return "", false
	}
	return *s.sessionPassword, true
}

// Dir returns the directory dprun runs in, or "" for the current directory.
func (s *Spec) Dir() string { return s.dir }

func cloneParts(parts []address.Part) []address.Part {
	out := make([]address.Part, len(parts))
	for i, p := range parts {
		out[i] = clonePart(p)
	}
	return out
}

func clonePart(p address.Part) address.Part {
	if b, ok := p.Value.(address.Bytes); ok {
		p.Value = append(address.Bytes(nil), b...)
	}
	return p
}
