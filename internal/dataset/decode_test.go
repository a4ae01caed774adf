package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "strips leading BOM",
			input:    "\xef\xbb\xbfdate,carrier\n",
			expected: "date,carrier\n",
		},
		{
			name:     "clean text passes through",
			input:    "date,carrier\n20230101,K\n",
			expected: "date,carrier\n20230101,K\n",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "BOM only",
			input:    "\xef\xbb\xbf",
			expected: "",
		},
		{
			name:     "double BOM fully stripped",
			input:    "\xef\xbb\xbf\xef\xbb\xbfdate\n",
			expected: "date\n",
		},
		{
			name:     "BOM in the middle is preserved",
			input:    "date\n\xef\xbb\xbfvalue\n",
			expected: "date\n\xef\xbb\xbfvalue\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Decode(tt.input))
		})
	}
}

func TestDecodeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"\xef\xbb\xbf",
		"\xef\xbb\xbf\xef\xbb\xbfdate\n",
		"date,空中,remark\n2023/01/01,1,演訓\n",
		"\xef\xbb\xbfdate,carrier\n20230101,K\n",
	}

	for _, input := range inputs {
		once := Decode(input)
		assert.Equal(t, once, Decode(once), "decode must be a no-op on already-clean text")
	}
}
