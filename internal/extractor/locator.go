package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// DefaultContainerSelectors are the container patterns GitHub has used for a
// trending entry, newest first.
var DefaultContainerSelectors = []string{
	`article.Box-row`,
	`.Box-row`,
	`article[class*="Box-row"]`,
	`.repo-list-item`,
	`[data-testid="repository-item"]`,
}

// DefaultHeadingSelector matches repository headings by class fragment when no
// container selector applies.
const DefaultHeadingSelector = `h2[class*="h3"]`

// Locator finds candidate elements in a document. An empty selection means the
// locator does not apply to this markup.
type Locator struct {
	Name string
	Find func(doc *goquery.Document) *goquery.Selection
}

// SelectorLocator compiles a CSS selector into a Locator.
func SelectorLocator(selector string) (Locator, error) {
	sel := strings.TrimSpace(selector)
	if sel == "" {
		return Locator{}, fmt.Errorf("empty selector")
	}
	compiled, err := cascadia.Compile(sel)
	if err != nil {
		return Locator{}, fmt.Errorf("invalid selector %q: %w", sel, err)
	}
	return Locator{
		Name: sel,
		Find: func(doc *goquery.Document) *goquery.Selection {
			return doc.FindMatcher(compiled)
		},
	}, nil
}

func compileLocators(selectors []string) ([]Locator, error) {
	locators := make([]Locator, 0, len(selectors))
	for _, s := range selectors {
		loc, err := SelectorLocator(s)
		if err != nil {
			return nil, err
		}
		locators = append(locators, loc)
	}
	return locators, nil
}

// firstMatch returns the first locator that matches at least one element.
// Matches from later locators are never merged in.
func firstMatch(doc *goquery.Document, locators []Locator) (Locator, *goquery.Selection, bool) {
	for _, loc := range locators {
		if sel := loc.Find(doc); sel != nil && sel.Length() > 0 {
			return loc, sel, true
		}
	}
	return Locator{}, nil, false
}

// linkFinder picks the repository anchor out of one container.
type linkFinder struct {
	name string
	find func(container *goquery.Selection) *goquery.Selection
}

var linkFinders = []linkFinder{
	{name: "heading", find: headingLink},
	{name: "site-relative", find: siteRelativeLink},
	{name: "repository-path", find: repositoryPathLink},
}

// headingLink returns the first anchor inside the container's first h2.
func headingLink(container *goquery.Selection) *goquery.Selection {
	h2 := container.Find("h2").First()
	if h2.Length() == 0 {
		return nil
	}
	return firstAnchor(h2)
}

// siteRelativeLink returns the first anchor whose href starts with "/".
func siteRelativeLink(container *goquery.Selection) *goquery.Selection {
	return firstAnchorWhere(container, func(href string) bool {
		return strings.HasPrefix(href, "/")
	})
}

// repositoryPathLink returns the first anchor whose href looks like an
// owner/name path on the same site.
func repositoryPathLink(container *goquery.Selection) *goquery.Selection {
	return firstAnchorWhere(container, looksLikeRepositoryPath)
}

func looksLikeRepositoryPath(href string) bool {
	return strings.Contains(href, "/") &&
		!strings.HasPrefix(href, "http") &&
		len(strings.Split(href, "/")) >= 2
}

func firstAnchor(s *goquery.Selection) *goquery.Selection {
	a := s.Find("a").First()
	if a.Length() == 0 {
		return nil
	}
	return a
}

func firstAnchorWhere(s *goquery.Selection, match func(href string) bool) *goquery.Selection {
	var found *goquery.Selection
	s.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if match(href) {
			found = a
			return false
		}
		return true
	})
	return found
}
