package guid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGUIDString(t *testing.T) {
	g := MustParse("36e95ee0-8577-11cf-960c-0080c7534e82")
	assert.Equal(t, "{36E95EE0-8577-11CF-960C-0080C7534E82}", g.String())
}

func TestGUIDStringShape(t *testing.T) {
	for i := 0; i < 50; i++ {
		s := New().String()
		require.Len(t, s, 38)
		assert.Equal(t, byte('{'), s[0])
		assert.Equal(t, byte('}'), s[37])
		assert.Equal(t, 4, strings.Count(s, "-"))
		for _, pos := range []int{9, 14, 19, 24} {
			assert.Equal(t, byte('-'), s[pos], "hyphen at %d in %s", pos, s)
		}
		assert.Equal(t, strings.ToUpper(s), s)
	}
}

func TestGUIDIsZero(t *testing.T) {
	assert.True(t, GUID{}.IsZero())
	assert.True(t, MustParse("{00000000-0000-0000-0000-000000000000}").IsZero())
	assert.False(t, TCPIPProvider.IsZero())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "bare lowercase", input: "5bfdb060-06a4-11d0-9c4f-00a0c905425e", want: "{5BFDB060-06A4-11D0-9C4F-00A0C905425E}"},
		{name: "braced mixed case", input: "{5BFDB060-06A4-11d0-9C4F-00A0C905425E}", want: "{5BFDB060-06A4-11D0-9C4F-00A0C905425E}"},
		{name: "surrounding whitespace", input: "  {E4524541-8EA5-11D1-8A96-006097B01411} ", want: "{E4524541-8EA5-11D1-8A96-006097B01411}"},
		{name: "unbalanced brace", input: "{E4524541-8EA5-11D1-8A96-006097B01411", wantErr: true},
		{name: "no hyphens", input: "E45245418EA511D18A96006097B01411", wantErr: true},
		{name: "urn form", input: "urn:uuid:E4524541-8EA5-11D1-8A96-006097B01411", wantErr: true},
		{name: "not hex", input: "ZZZZZZZZ-8EA5-11D1-8A96-006097B01411", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("nope") })
}

func TestRef(t *testing.T) {
	t.Run("guid ref formats braced", func(t *testing.T) {
		r := ByGUID(TCPIPProvider)
		assert.Equal(t, "{36E95EE0-8577-11CF-960C-0080C7534E82}", r.String())
		g, ok := r.GUID()
		assert.True(t, ok)
		assert.Equal(t, TCPIPProvider, g)
		_, named := r.Alias()
		assert.False(t, named)
	})

	t.Run("alias ref is verbatim", func(t *testing.T) {
		r := ByAlias("INet")
		assert.Equal(t, "INet", r.String())
		name, ok := r.Alias()
		assert.True(t, ok)
		assert.Equal(t, "INet", name)
	})

	t.Run("alias and guid are never equal", func(t *testing.T) {
		assert.NotEqual(t, ByAlias(LoopbackAlias), ByGUID(DPRunProvider))
		assert.Equal(t, ByAlias(LoopbackAlias), ByAlias("DPRUN"))
	})

	t.Run("loopback matches both forms", func(t *testing.T) {
		assert.True(t, ByAlias(LoopbackAlias).IsLoopback())
		assert.True(t, ByGUID(DPRunProvider).IsLoopback())
		assert.False(t, ByAlias("dprun").IsLoopback())
		assert.False(t, ByGUID(TCPIPProvider).IsLoopback())
	})

	t.Run("inet port matches both forms", func(t *testing.T) {
		assert.True(t, ByAlias(INetPortAlias).IsINetPort())
		assert.True(t, ByGUID(INetPort).IsINetPort())
		assert.False(t, ByAlias("INet").IsINetPort())
	})
}

func TestParseRef(t *testing.T) {
	assert.Equal(t, ByGUID(TCPIPProvider), ParseRef("{36E95EE0-8577-11CF-960C-0080C7534E82}"))
	assert.Equal(t, ByAlias("DPRUN"), ParseRef("DPRUN"))
	assert.Equal(t, ByAlias("INet"), ParseRef("INet"))
}
