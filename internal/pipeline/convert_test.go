package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/litstack/refharvest/internal/bib"
	"github.com/litstack/refharvest/internal/registry"
	"github.com/litstack/refharvest/internal/scrape"
)

func TestSkeletonsToArticlesDedupsCaseInsensitively(t *testing.T) {
	skeletons := []scrape.RefSkeleton{
		{Index: 0, DOI: "10.1/Alpha", RawTitle: "First"},
		{Index: 1, DOI: "10.1/ALPHA", RawTitle: "Duplicate"},
		{Index: 2, DOI: "https://doi.org/10.1/beta"},
	}
	articles := skeletonsToArticles(skeletons)
	require.Len(t, articles, 2)
	require.Equal(t, "10.1/Alpha", articles[0].DOI)
	require.Equal(t, "10.1/beta", articles[1].DOI, "doi.org prefix must be stripped")
}

func TestSkeletonsToArticlesUnresolvedKeepIndex(t *testing.T) {
	skeletons := []scrape.RefSkeleton{
		{Index: 0, RawTitle: "No Identifier One", RawAuthors: "[1] A. One, B. Two"},
		{Index: 1, RawTitle: "No Identifier Two"},
	}
	articles := skeletonsToArticles(skeletons)
	require.Len(t, articles, 2)
	require.Equal(t, bib.UnresolvedID(0), articles[0].DOI)
	require.Equal(t, bib.UnresolvedID(1), articles[1].DOI)
	require.NotEqual(t, articles[0].DOI, articles[1].DOI)
	require.Equal(t, []string{"A. One", "B. Two"}, articles[0].Authors)
	require.NotEmpty(t, articles[0].Notes)
}

func TestSkeletonsToArticlesCarriesSourceLinks(t *testing.T) {
	skeletons := []scrape.RefSkeleton{{
		Index:        0,
		DOI:          "10.1/x",
		RawTitle:     "Linked",
		Year:         2017,
		RegistryURL:  "https://doi.org/10.1/x",
		ScholarURL:   "https://scholar.google.com/scholar?q=linked",
		PublisherURL: "https://ieeexplore.ieee.org/document/1",
	}}
	a := skeletonsToArticles(skeletons)[0]
	require.Equal(t, 2017, a.Year)
	require.Equal(t, "https://doi.org/10.1/x", a.RegistryURL)
	require.Equal(t, "https://scholar.google.com/scholar?q=linked", a.ScholarURL)
	require.Equal(t, "https://ieeexplore.ieee.org/document/1", a.PublisherURL)
}

func TestReferencesToArticles(t *testing.T) {
	refs := []registry.Reference{
		{DOI: "10.1/cited", ArticleTitle: "Cited Work", Author: "C. Cited", Year: "2015", JournalTitle: "J. Cited"},
		{Unstructured: "An unmatched citation string."},
		{DOI: "10.1/CITED"},
		{DOI: "10.1/other", ArticleTitle: "Other Work"},
	}
	articles := referencesToArticles(refs)
	require.Len(t, articles, 2, "entries without a DOI and duplicates must both be dropped")

	require.Equal(t, "10.1/cited", articles[0].DOI)
	require.Equal(t, "Cited Work", articles[0].Title)
	require.Equal(t, 2015, articles[0].Year)
	require.Equal(t, "J. Cited", articles[0].Venue)
	require.Equal(t, "10.1/other", articles[1].DOI)
}

func TestReferencesToArticlesStampsAccessDay(t *testing.T) {
	refs := []registry.Reference{{DOI: "10.1/cited", ArticleTitle: "Cited Work"}}
	a := referencesToArticles(refs)[0]
	require.False(t, a.AccessedDate.IsZero())
	require.Equal(t, time.Now().UTC().Truncate(24*time.Hour), a.AccessedDate)
}
