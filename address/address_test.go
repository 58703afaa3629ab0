package address_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/submitgo/submit/address"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		errIs  error
	}{
		{"simple", "a@x.com", "a@x.com", nil},
		{"trims whitespace", "  a@x.com  ", "a@x.com", nil},
		{"quoted local-part", `"a b"@x.com`, `"a b"@x.com`, nil},
		{"missing at", "nope", "", address.ErrMissingAt},
		{"empty local-part", "@x.com", "", address.ErrEmptyLocalPart},
		{"empty domain", "a@", "", address.ErrEmptyDomain},
		{"local-part too long", strings.Repeat("a", 65) + "@x.com", "", address.ErrLocalPartTooLong},
		{"domain label too long", "a@" + strings.Repeat("b", 64) + ".com", "", address.ErrLabelTooLong},
		{"unclosed quote", `"ab@x.com`, "", address.ErrUnclosedQuote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := address.Parse(tt.input)
			if tt.errIs != nil {
				assert.ErrorIs(t, err, tt.errIs)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, a.String())
		})
	}
}

func TestParse_IDN(t *testing.T) {
	a, err := address.Parse("user@münchen.example")
	assert.NoError(t, err)
	assert.True(t, a.IsIDN())
	assert.Equal(t, "münchen.example", a.UnicodeDomain())
	assert.NotEqual(t, a.Domain(), a.UnicodeDomain())
	assert.True(t, strings.HasPrefix(a.Domain(), "xn--"))
}

func TestParseMailbox(t *testing.T) {
	mb, err := address.ParseMailbox("Sterling Archer <a@x.com>")
	assert.NoError(t, err)
	assert.Equal(t, "Sterling Archer", mb.DisplayName)
	assert.Equal(t, "a@x.com", mb.Address.String())

	mb, err = address.ParseMailbox("a@x.com")
	assert.NoError(t, err)
	assert.Equal(t, "", mb.DisplayName)
	assert.Equal(t, "a@x.com", mb.Address.String())

	mb, err = address.ParseMailbox(`"Archer, Sterling" <a@x.com>`)
	assert.NoError(t, err)
	assert.Equal(t, "Archer, Sterling", mb.DisplayName)
}

func TestParseMailboxList(t *testing.T) {
	list, err := address.ParseMailboxList(`"Archer, Sterling" <a@x.com>, b@y.com`)
	assert.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, "Archer, Sterling", list[0].DisplayName)
	assert.Equal(t, "b@y.com", list[1].Address.String())
}
