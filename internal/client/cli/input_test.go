package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSimpleText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain line", input: "hello\n", want: "hello"},
		{name: "trims whitespace", input: "  hello  \n", want: "hello"},
		{name: "partial line at EOF", input: "no newline", want: "no newline"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := GetSimpleText(bufio.NewReader(strings.NewReader(tc.input)), "Prompt", &out)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Contains(t, out.String(), "Prompt")
		})
	}
}

func TestGetPassword_UsesStub(t *testing.T) {
	orig := readPassword
	readPassword = func(fd int) ([]byte, error) { return []byte("s3cret"), nil }
	defer func() { readPassword = orig }()

	var out bytes.Buffer
	pw, err := GetPassword(&out)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pw)
	assert.Contains(t, out.String(), "Enter password")
}

func TestParseLocation(t *testing.T) {
	lat, lon, err := parseLocation("-6.2 106.8")
	require.NoError(t, err)
	assert.InDelta(t, -6.2, lat, 1e-9)
	assert.InDelta(t, 106.8, lon, 1e-9)

	_, _, err = parseLocation("only-one")
	assert.Error(t, err)
}
