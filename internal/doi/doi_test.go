package doi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", "10.1109/ACCESS.2020.1234567", "10.1109/ACCESS.2020.1234567"},
		{"embedded", "see https://doi.org/10.1000/xyz123 for details", "10.1000/xyz123"},
		{"trailing punctuation", "cited as 10.1000/xyz123.", "10.1000/xyz123"},
		{"closing bracket", "(10.1000/xyz123)", "10.1000/xyz123"},
		{"closing quote", `"10.1000/xyz123"`, "10.1000/xyz123"},
		{"none", "no identifier here", ""},
		{"short registrant", "10.99/nope", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Extract(tc.in))
		})
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "10.1000/xyz123", "10.1000/xyz123"},
		{"https resolver", "https://doi.org/10.1000/xyz123", "10.1000/xyz123"},
		{"dx resolver", "http://dx.doi.org/10.1000/xyz123", "10.1000/xyz123"},
		{"doi scheme", "doi: 10.1000/xyz123", "10.1000/xyz123"},
		{"trailing punctuation", "10.1000/xyz123;", "10.1000/xyz123"},
		{"whitespace only", "   ", ""},
		{"punctuation only", ".,;", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"https://doi.org/10.1000/xyz123",
		"doi:10.1109/ACCESS.2020.1234567",
		"10.1000/xyz123.",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		require.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestSafeFilename(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"doi slash", "10.1109/ACCESS.2020.1234567", "10.1109_ACCESS.2020.1234567"},
		{"empty", "", "article"},
		{"traversal only", "../..", "article"},
		{"windows traversal", `..\..\boot.ini`, "boot.ini"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, SafeFilename(tc.in))
		})
	}
}

func TestSafeFilenameNeverTraverses(t *testing.T) {
	adversarial := []string{
		"../../etc/passwd",
		"a/../../b",
		"..%2F..%2Fetc",
		"....//....//secret",
		strings.Repeat("../", 50) + "x",
		"normal-10.1000_xyz",
	}
	for _, in := range adversarial {
		got := SafeFilename(in)
		require.NotContains(t, got, "/", "input %q", in)
		require.NotContains(t, got, `\`, "input %q", in)
		require.NotContains(t, got, "..", "input %q", in)
		require.NotEmpty(t, got, "input %q", in)
	}
}

func TestSafeFilenameTruncates(t *testing.T) {
	long := "10.1000/" + strings.Repeat("a", 500)
	require.LessOrEqual(t, len(SafeFilename(long)), 120)
}
