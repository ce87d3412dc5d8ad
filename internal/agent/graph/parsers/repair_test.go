package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSingleToDoubleQuotes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"keys and values", `{'a': 'b'}`, `{"a": "b"}`},
		{"apostrophe inside double quotes", `{"a": "don't"}`, `{"a": "don't"}`},
		{"double quote inside single quotes", `{'a': 'say "hi"'}`, `{"a": "say \"hi\""}`},
		{"escaped single quote", `{'a': 'it\'s'}`, `{"a": "it's"}`},
		{"mixed", `{"a": 'b', 'c': 1}`, `{"a": "b", "c": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SingleToDoubleQuotes(tt.in))
		})
	}
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, `{"a": "line one line two"}`, CollapseWhitespace("{\"a\":  \"line one\n\n  line two\"}"))
}

func TestStripTrailingCommas(t *testing.T) {
	assert.Equal(t, `{"a": [1, 2]}`, StripTrailingCommas(`{"a": [1, 2,],}`))
	assert.Equal(t, `{"a": 1}`, StripTrailingCommas("{\"a\": 1,\n}"))
}

func TestRemoveInvalidEscapes(t *testing.T) {
	assert.Equal(t, `{"a": "100$ off"}`, RemoveInvalidEscapes(`{"a": "100\$ off"}`))
	assert.Equal(t, `{"a": "line\nnext \"q\" é \\"}`, RemoveInvalidEscapes(`{"a": "line\nnext \"q\" é \\"}`))
}

func TestRepairOrder(t *testing.T) {
	names := make([]string, 0, len(Repairs))
	for _, r := range Repairs {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"single_quotes", "collapse_whitespace", "trailing_commas", "invalid_escapes"}, names)
}
