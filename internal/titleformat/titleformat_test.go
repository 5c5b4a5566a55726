package titleformat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	fields := MapFields{
		"title":       "Blue in Green",
		"artist":      "Miles Davis",
		"album":       "Kind of Blue",
		"tracknumber": "3/5",
		"empty":       "",
	}

	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"plain text", "hello", "hello"},
		{"field", "%title%", "Blue in Green"},
		{"field case insensitive", "%ARTIST%", "Miles Davis"},
		{"missing field", "%composer%", ""},
		{"quoted literal", "'%title%'", "%title%"},
		{"escaped quote", "it''s", "it's"},
		{"percent escape", "100%%", "100%"},
		{"default title not paused", "%title%$if(%ispaused%,' ('paused')')", "Blue in Green"},
		{"optional present", "%artist%[ - %album%]", "Miles Davis - Kind of Blue"},
		{"optional missing", "%artist%[ - %composer%]", "Miles Davis"},
		{"optional empty field is true", "[x%empty%]", "x"},
		{"if else", "$if(%composer%,yes,no)", "no"},
		{"if2", "$if2(%composer%,%artist%)", "Miles Davis"},
		{"if3", "$if3(%a%,%b%,%album%,none)", "Kind of Blue"},
		{"if3 fallback", "$if3(%a%,%b%,none)", "none"},
		{"not", "$if($not(%composer%),solo)", "solo"},
		{"and", "$if($and(%title%,%artist%),both)", "both"},
		{"or", "$if($or(%x%,%artist%),one)", "one"},
		{"upper", "$upper(%artist%)", "MILES DAVIS"},
		{"lower", "$lower(%artist%)", "miles davis"},
		{"trim", "$trim(' x ')", "x"},
		{"left", "$left(%album%,4)", "Kind"},
		{"left longer than value", "$left(%album%,40)", "Kind of Blue"},
		{"len", "$len(%album%)", "12"},
		{"num pads", "$num(%tracknumber%,2)", "03"},
		{"replace", "$replace(%album%,Blue,Green)", "Kind of Green"},
		{"nested", "$upper($left(%title%,4))", "BLUE"},
		{"default album query", `release:"%album%" AND artist:"%artist%"`, `release:"Kind of Blue" AND artist:"Miles Davis"`},
		{"unbalanced close paren is literal", "a)b", "a)b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format(tt.script, fields)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_NumWidthCapped(t *testing.T) {
	got, err := Format("$num(%n%,999999999999)", MapFields{"n": "5"})
	require.NoError(t, err)
	assert.Len(t, got, maxNumWidth)
	assert.True(t, strings.HasSuffix(got, "05"))

	got, err = Format("$num(-7,300)", nil)
	require.NoError(t, err)
	assert.Len(t, got, maxNumWidth+1)
	assert.Equal(t, byte('-'), got[0])
}

func TestFormat_PausedFlag(t *testing.T) {
	got, err := Format("%title%$if(%ispaused%,' ('paused')')", MapFields{"title": "So What", "ispaused": "1"})
	require.NoError(t, err)
	assert.Equal(t, "So What (paused)", got)
}

func TestCompile_Errors(t *testing.T) {
	scripts := []string{
		"%title",
		"'open",
		"[%title%",
		"$upper(%title%",
		"$nope(x)",
		"$upper(a,b)",
		"$if(x)",
		"$(x)",
		"$upper",
	}

	for _, s := range scripts {
		t.Run(s, func(t *testing.T) {
			_, err := Compile(s)
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestScript_NilFields(t *testing.T) {
	s, err := Compile("[%title% - ]static")
	require.NoError(t, err)
	assert.Equal(t, "static", s.Eval(nil))
	assert.Equal(t, "[%title% - ]static", s.String())
}
