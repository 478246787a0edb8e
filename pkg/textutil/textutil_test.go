package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	testCases := []struct {
		input  string
		expect string
	}{
		{input: "  Honda  Civic\n Headlight ", expect: "honda civic headlight"},
		{input: "Tail Light &amp; Bracket", expect: "tail light & bracket"},
		{input: "OEM&#39;s\tBEST", expect: "oem's best"},
		{input: "", expect: ""},
	}

	for _, test := range testCases {
		require.Equal(t, test.expect, NormalizeName(test.input))
	}
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "$1,250 obo", CleanText("\n  $1,250 \u0000 obo\t"))
}

func TestBestMatch(t *testing.T) {
	candidates := []string{
		"Ford F150 Headlight Assembly",
		"Chevy Silverado Tail Light &amp; Harness",
		"Toyota Tacoma bumper",
	}

	testCases := []struct {
		target string
		expect int
	}{
		{target: "Ford F150 Headlight Assembly", expect: 0},
		{target: "chevy  silverado tail light & harness", expect: 1},
		{target: "Toyota Tacoma bumper.", expect: 2},
		{target: "Dodge Ram mirror", expect: -1},
	}

	for _, test := range testCases {
		match := BestMatch(test.target, candidates, 0.95)
		require.Equal(t, test.expect, match.Index, test.target)
	}

	require.Equal(t, -1, BestMatch("anything", nil, 0.95).Index)
}
