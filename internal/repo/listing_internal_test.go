package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLike(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "excavator", "excavator"},
		{"percent", "100% duty", `100\% duty`},
		{"underscore", "model_year", `model\_year`},
		{"backslash", `C:\gear`, `C:\\gear`},
		{"every metacharacter", `\%_`, `\\\%\_`},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, escapeLike(tc.in))
		})
	}
}
