package bib

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAuthors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "comma separated",
			in:   "A. Author, B. Builder, C. Coder",
			want: []string{"A. Author", "B. Builder", "C. Coder"},
		},
		{
			name: "and separator",
			in:   "A. Author and B. Builder",
			want: []string{"A. Author", "B. Builder"},
		},
		{
			name: "bracket ordinal stripped",
			in:   "[12] A. Author, B. Builder",
			want: []string{"A. Author", "B. Builder"},
		},
		{
			name: "dot ordinal stripped",
			in:   "12. A. Author",
			want: []string{"A. Author"},
		},
		{
			name: "citation noise dropped",
			in:   "A. Author, vol. 12, no. 3, pp. 44-59",
			want: []string{"A. Author"},
		},
		{
			name: "page range dropped",
			in:   "A. Author, 101-110",
			want: []string{"A. Author"},
		},
		{
			name: "organization abbreviation dropped",
			in:   "IEEE, A. Author",
			want: []string{"A. Author"},
		},
		{
			name: "empty",
			in:   "",
			want: nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ParseAuthors(tc.in))
		})
	}
}

func TestUnresolvedID(t *testing.T) {
	require.Equal(t, "UNRESOLVED-3", UnresolvedID(3))

	a := Article{DOI: UnresolvedID(3)}
	require.True(t, a.Unresolved())

	b := Article{DOI: "10.1000/xyz"}
	require.False(t, b.Unresolved())
}

func TestSameDOI(t *testing.T) {
	require.True(t, SameDOI("10.1109/ACCESS.2020.1", "10.1109/access.2020.1"))
	require.False(t, SameDOI("10.1109/ACCESS.2020.1", "10.1109/ACCESS.2020.2"))
}
