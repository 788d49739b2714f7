package scrape

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// fakeNavigator serves canned pages keyed by URL, standing in for a real
// browser session in tests.
type fakeNavigator struct {
	pages   map[string]fakePage
	current string
	visited []string
	clicked bool
	failNav map[string]error
}

type fakePage struct {
	html     string
	location string // final URL after redirects; defaults to the key
}

var tagPattern = regexp.MustCompile(`<[^>]+>`)

func newFakeNavigator() *fakeNavigator {
	return &fakeNavigator{pages: map[string]fakePage{}, failNav: map[string]error{}}
}

func (f *fakeNavigator) addPage(url, html string) {
	f.pages[url] = fakePage{html: html}
}

func (f *fakeNavigator) addRedirect(url, finalURL, html string) {
	f.pages[url] = fakePage{html: html, location: finalURL}
}

func (f *fakeNavigator) Navigate(_ context.Context, url string) error {
	f.visited = append(f.visited, url)
	if err, ok := f.failNav[url]; ok {
		return err
	}
	if _, ok := f.pages[url]; !ok {
		return fmt.Errorf("no page registered for %s", url)
	}
	f.current = url
	return nil
}

func (f *fakeNavigator) ClickFirst(context.Context, ...string) bool {
	f.clicked = true
	return true
}

func (f *fakeNavigator) BodyText(_ context.Context) (string, error) {
	page, ok := f.pages[f.current]
	if !ok {
		return "", fmt.Errorf("no current page")
	}
	return strings.TrimSpace(tagPattern.ReplaceAllString(page.html, " ")), nil
}

func (f *fakeNavigator) HTML(_ context.Context) (string, error) {
	page, ok := f.pages[f.current]
	if !ok {
		return "", fmt.Errorf("no current page")
	}
	return page.html, nil
}

func (f *fakeNavigator) Location(_ context.Context) (string, error) {
	page, ok := f.pages[f.current]
	if !ok {
		return "", fmt.Errorf("no current page")
	}
	if page.location != "" {
		return page.location, nil
	}
	return f.current, nil
}
