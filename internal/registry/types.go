package registry

import "strings"

// Work is the registry's metadata record for a single article, decoded
// from the works endpoint response envelope.
type Work struct {
	DOI            string      `json:"DOI"`
	Title          []string    `json:"title"`
	ContainerTitle []string    `json:"container-title"`
	Author         []Author    `json:"author"`
	Abstract       string      `json:"abstract"`
	Issued         PartialDate `json:"issued"`
	PublishedPrint PartialDate `json:"published-print"`
	PublishedOn    PartialDate `json:"published-online"`
	Created        PartialDate `json:"created"`
	Link           []Link      `json:"link"`
	Reference      []Reference `json:"reference"`
}

// Author is a single contributor entry on a work.
type Author struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

// Link is a full-text link advertised on a work.
type Link struct {
	URL         string `json:"URL"`
	ContentType string `json:"content-type"`
}

// Reference is one entry of a work's own bibliography.
type Reference struct {
	Key          string `json:"key"`
	DOI          string `json:"DOI"`
	ArticleTitle string `json:"article-title"`
	Author       string `json:"author"`
	Year         string `json:"year"`
	JournalTitle string `json:"journal-title"`
	Unstructured string `json:"unstructured"`
}

// PartialDate is the registry's date-parts encoding: a year, optionally
// followed by month and day.
type PartialDate struct {
	DateParts [][]int `json:"date-parts"`
}

// Year returns the year component, or 0 when absent.
func (d PartialDate) Year() int {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return 0
	}
	return d.DateParts[0][0]
}

// FullName joins the author's name parts, preferring given/family over the
// single-field literal form used for consortia.
func (a Author) FullName() string {
	name := strings.TrimSpace(strings.TrimSpace(a.Given) + " " + strings.TrimSpace(a.Family))
	if name != "" {
		return name
	}
	return strings.TrimSpace(a.Name)
}

// BestTitle returns the first non-empty title variant.
func (w Work) BestTitle() string {
	for _, t := range w.Title {
		if s := strings.TrimSpace(t); s != "" {
			return s
		}
	}
	return ""
}

// BestVenue returns the first non-empty container title.
func (w Work) BestVenue() string {
	for _, t := range w.ContainerTitle {
		if s := strings.TrimSpace(t); s != "" {
			return s
		}
	}
	return ""
}

// BestYear checks the work's date fields in priority order.
func (w Work) BestYear() int {
	for _, d := range []PartialDate{w.Issued, w.PublishedPrint, w.PublishedOn, w.Created} {
		if y := d.Year(); y > 0 {
			return y
		}
	}
	return 0
}

// PDFLink returns the first advertised link with a PDF content type.
// Registries append charset parameters, so a substring match is used.
func (w Work) PDFLink() string {
	for _, l := range w.Link {
		if strings.Contains(strings.ToLower(l.ContentType), "pdf") && l.URL != "" {
			return l.URL
		}
	}
	return ""
}
