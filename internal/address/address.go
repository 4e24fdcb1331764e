// Package address encodes DirectPlay compound address parts into dprun's
// --address argument syntax.
//
// DirectPlay itself stores address values untyped. dprun infers the type from
// a prefix on the value:
//
//	i:<decimal>   32-bit signed integer
//	b:<hex>       raw bytes, two lowercase hex digits per byte
//	<anything>    string
package address

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/faize-ai/dplaunch/internal/guid"
)

const (
	intPrefix   = "i:"
	bytesPrefix = "b:"
)

// Value is an address part value. It is implemented by Int, Text and Bytes.
type Value interface {
	encode() string
}

// Int is a numeric address value.
type Int int32

// Text is a string address value.
type Text string

// Bytes is a binary address value.
type Bytes []byte

func (v Int) encode() string   { return intPrefix + strconv.FormatInt(int64(v), 10) }
func (v Text) encode() string  { return string(v) }
func (v Bytes) encode() string { return bytesPrefix + hex.EncodeToString(v) }

// HasTypePrefix reports whether the text would be read back by dprun as an
// integer or byte value.
func (v Text) HasTypePrefix() bool {
	return strings.HasPrefix(string(v), intPrefix) || strings.HasPrefix(string(v), bytesPrefix)
}

// Part is one element of a compound address, akin to
// DPCOMPOUNDADDRESSELEMENT.
type Part struct {
	Key   guid.Ref
	Value Value
}

// Encode returns the part as a single "<key>=<value>" token.
func (p Part) Encode() string {
	return p.Key.String() + "=" + p.Value.encode()
}

// Int returns the value of an integer part.
func (p Part) Int() (int32, bool) {
	v, ok := p.Value.(Int)
	return int32(v), ok
}

// Parse decodes a token produced by Encode. Values without a recognised
// prefix are text, so a text value that itself starts with "i:" or "b:"
// cannot be expressed; dprun has the same limitation.
func Parse(token string) (Part, error) {
	key, raw, ok := strings.Cut(token, "=")
	if !ok {
		return Part{}, fmt.Errorf("address part %q: missing '='", token)
	}
	if key == "" {
		return Part{}, errors.New("address part has an empty key")
	}

	part := Part{Key: guid.ParseRef(key)}
	switch {
	case strings.HasPrefix(raw, intPrefix):
		n, err := strconv.ParseInt(raw[len(intPrefix):], 10, 32)
		if err != nil {
			return Part{}, fmt.Errorf("address part %q: invalid integer: %w", token, err)
		}
		part.Value = Int(n)
	case strings.HasPrefix(raw, bytesPrefix):
		b, err := hex.DecodeString(raw[len(bytesPrefix):])
		if err != nil {
			return Part{}, fmt.Errorf("address part %q: invalid hex: %w", token, err)
		}
		part.Value = Bytes(b)
	default:
		part.Value = Text(raw)
	}
	return part, nil
}
