package htmlutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestGetText(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(
		`<div>hello <b>bold</b><span> world</span></div>`,
	))
	require.NoError(t, err)

	require.Equal(t, "hello bold world", GetText(doc))
}

func TestCleanText(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"  06:24 h  ", "06:24 h"},
		{"2 horas\n\t 25 minutos", "2 horas 25 minutos"},
		{"", ""},
		{"\t\n ", ""},
		{"Básico", "Básico"},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, CleanText(test.input))
	}
}
