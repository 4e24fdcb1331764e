// Package guid formats DirectPlay GUIDs and GUID aliases the way dprun expects
// them on its command line.
package guid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Well-known DirectPlay identifiers.
var (
	// DPRunProvider is the GUID of the dprun service provider, which relays
	// DirectPlay messages to the callback server instead of a real transport.
	DPRunProvider = MustParse("B1ED2367-609B-4C5C-8755-D2A29BB9A554")
	// INetPort is the address part type holding a port number.
	INetPort = MustParse("E4524541-8EA5-11D1-8A96-006097B01411")
	// TCPIPProvider is the stock DirectPlay TCP/IP service provider.
	TCPIPProvider = MustParse("36E95EE0-8577-11CF-960C-0080C7534E82")
)

// Aliases understood by dprun in place of GUIDs.
const (
	LoopbackAlias = "DPRUN"
	INetPortAlias = "INetPort"
)

// GUID is a 128-bit DirectPlay identifier.
type GUID uuid.UUID

// New returns a random GUID.
func New() GUID {
	return GUID(uuid.New())
}

// Parse parses a GUID with or without surrounding braces, in any case.
func Parse(s string) (GUID, error) {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "{") {
		if !strings.HasSuffix(trimmed, "}") {
			return GUID{}, fmt.Errorf("invalid GUID %q: unbalanced braces", s)
		}
		trimmed = trimmed[1 : len(trimmed)-1]
	}
	// uuid.Parse also accepts urn: and unhyphenated forms; dprun does not.
	if len(trimmed) != 36 {
		return GUID{}, fmt.Errorf("invalid GUID %q", s)
	}
	u, err := uuid.Parse(trimmed)
	if err != nil {
		return GUID{}, fmt.Errorf("invalid GUID %q: %w", s, err)
	}
	return GUID(u), nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(s string) GUID {
	g, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return g
}

// String returns the braced, uppercase form, e.g.
// {36E95EE0-8577-11CF-960C-0080C7534E82}.
func (g GUID) String() string {
	return "{" + strings.ToUpper(uuid.UUID(g).String()) + "}"
}

// IsZero reports whether g is the nil GUID.
func (g GUID) IsZero() bool {
	return uuid.UUID(g) == uuid.Nil
}

// Ref is either a GUID or one of the named aliases dprun accepts for it.
// Refs compare structurally: an alias never equals the GUID it stands for.
type Ref struct {
	id    GUID
	alias string
	named bool
}

// ByGUID refers to an object by GUID.
func ByGUID(g GUID) Ref {
	return Ref{id: g}
}

// ByAlias refers to an object by one of dprun's symbolic names.
func ByAlias(name string) Ref {
	return Ref{alias: name, named: true}
}

// ParseRef turns command line input into a Ref. Anything that parses as a
// GUID is a GUID, everything else is taken as an alias.
func ParseRef(s string) Ref {
	if g, err := Parse(s); err == nil {
		return ByGUID(g)
	}
	return ByAlias(s)
}

// GUID returns the referenced GUID, if this is not an alias.
func (r Ref) GUID() (GUID, bool) {
	return r.id, !r.named
}

// Alias returns the alias text, if this is an alias.
func (r Ref) Alias() (string, bool) {
	return r.alias, r.named
}

// IsLoopback reports whether r selects the dprun service provider.
func (r Ref) IsLoopback() bool {
	return r == ByGUID(DPRunProvider) || r == ByAlias(LoopbackAlias)
}

// IsINetPort reports whether r names the port address part type.
func (r Ref) IsINetPort() bool {
	return r == ByGUID(INetPort) || r == ByAlias(INetPortAlias)
}

// String returns the command line form: a braced GUID or the alias verbatim.
func (r Ref) String() string {
	if r.named {
		return r.alias
	}
	return r.id.String()
}
