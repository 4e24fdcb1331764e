package session

import (
	"errors"
	"fmt"

	"github.com/faize-ai/dplaunch/internal/address"
	"github.com/faize-ai/dplaunch/internal/callback"
	"github.com/faize-ai/dplaunch/internal/guid"
	"go.uber.org/multierr"
)

// Precondition failures reported by Builder.Finish.
var (
	ErrMissingMode            = errors.New("session mode is required (host or join)")
	ErrMissingPlayerName      = errors.New("player name is required")
	ErrMissingServiceProvider = errors.New("service provider is required")
	ErrMissingApplication     = errors.New("application is required")
	ErrLoopbackWithoutHandler = errors.New("the DPRUN service provider requires a callback handler")
	ErrMissingAddressValue    = errors.New("address part has no value")
	ErrAmbiguousAddressText   = errors.New("address text value must not start with \"i:\" or \"b:\"")
)

// PreconditionError reports an incomplete or inconsistent Builder. It always
// indicates a caller bug; retrying does not help.
type PreconditionError struct {
	Err error
}

func (e *PreconditionError) Error() string {
	return "invalid session: " + e.Err.Error()
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// Builder collects the options for a Spec.
type Builder struct {
	mode            *Mode
	playerName      *string
	provider        *guid.Ref
	handler         callback.Handler
	application     *guid.GUID
	address         []address.Part
	sessionName     *string
	sessionPassword *string
	dir             string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Host hosts a session. If id is nil, dprun generates a random session GUID.
func (b *Builder) Host(id *guid.GUID) *Builder {
	m := Host(id)
	b.mode = &m
	return b
}

// Join joins the session with the given GUID.
func (b *Builder) Join(id guid.GUID) *Builder {
	m := Join(id)
	b.mode = &m
	return b
}

// PlayerName sets the in-game name of the local player.
func (b *Builder) PlayerName(name string) *Builder {
	b.playerName = &name
	return b
}

// ServiceProvider selects the service provider by GUID.
func (b *Builder) ServiceProvider(id guid.GUID) *Builder {
	ref := guid.ByGUID(id)
	b.provider = &ref
	return b
}

// NamedServiceProvider selects the service provider by alias.
func (b *Builder) NamedServiceProvider(name string) *Builder {
	ref := guid.ByAlias(name)
	b.provider = &ref
	return b
}

// Handler registers the handler DirectPlay messages are relayed to. If no
// service provider was chosen yet, this selects the DPRUN provider.
func (b *Builder) Handler(h callback.Handler) *Builder {
	if b.provider == nil {
		b.NamedServiceProvider(guid.LoopbackAlias)
	}
	b.handler = h
	return b
}

// Application sets the GUID of the game to start.
func (b *Builder) Application(id guid.GUID) *Builder {
	b.application = &id
	return b
}

// SessionName names the hosted session.
func (b *Builder) SessionName(name string) *Builder {
	b.sessionName = &name
	return b
}

// SessionPassword password protects the session.
func (b *Builder) SessionPassword(password string) *Builder {
	b.sessionPassword = &password
	return b
}

// Dir sets the directory dprun is in. Defaults to the current directory.
func (b *Builder) Dir(dir string) *Builder {
	b.dir = dir
	return b
}

// AddressPart appends an address part keyed by GUID.
func (b *Builder) AddressPart(key guid.GUID, value address.Value) *Builder {
	return b.Part(address.Part{Key: guid.ByGUID(key), Value: value})
}

// NamedAddressPart appends an address part keyed by alias.
func (b *Builder) NamedAddressPart(key string, value address.Value) *Builder {
	return b.Part(address.Part{Key: guid.ByAlias(key), Value: value})
}

// Part appends an already constructed address part.
func (b *Builder) Part(p address.Part) *Builder {
	b.address = append(b.address, clonePart(p))
	return b
}

// Finish validates the options and returns the Spec. All missing fields are
// reported together in a *PreconditionError.
func (b *Builder) Finish() (*Spec, error) {
	var err error
	if b.mode == nil {
		err = multierr.Append(err, ErrMissingMode)
	}
	if b.playerName == nil {
		err = multierr.Append(err, ErrMissingPlayerName)
	}
	if b.provider == nil {
		err = multierr.Append(err, ErrMissingServiceProvider)
	} else if b.provider.IsLoopback() && b.handler == nil {
		err = multierr.Append(err, ErrLoopbackWithoutHandler)
	}
	if b.application == nil {
		err = multierr.Append(err, ErrMissingApplication)
	}
	for i, p := range b.address {
		switch v := p.Value.(type) {
		case nil:
			err = multierr.Append(err, fmt.Errorf("part %d (%s): %w", i, p.Key, ErrMissingAddressValue))
		case address.Text:
			if v.HasTypePrefix() {
				err = multierr.Append(err, fmt.Errorf("part %d (%s): %w", i, p.Key, ErrAmbiguousAddressText))
			}
		}
	}
	if err != nil {
		return nil, &PreconditionError{Err: err}
	}

	return &Spec{
		mode:            *b.mode,
		playerName:      *b.playerName,
		provider:        *b.provider,
		handler:         b.handler,
		application:     *b.application,
		address:         cloneParts(b.address),
		sessionName:     b.sessionName,
		sessionPassword: b.sessionPassword,
		dir:             b.dir,
	}, nil
}
