// Package report renders the human-readable console summary of a run.
package report

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"

	"github.com/byteowlz/trendr/internal/extractor"
)

const ruleWidth = 80

// PageInfo describes the fetched listing page.
type PageInfo struct {
	Title   string
	Excerpt string
}

// Summary is everything the success banner prints.
type Summary struct {
	Records  []extractor.Record
	File     string // "" when output went to stdout
	Page     PageInfo
	Strategy string
	Fallback bool
}

// Describe pulls the page title and excerpt out of html. It is best effort:
// markup readability cannot handle yields an empty PageInfo.
func Describe(html, pageURL string) PageInfo {
	if strings.TrimSpace(html) == "" {
		return PageInfo{}
	}

	var parsed *url.URL
	if pageURL != "" {
		if u, err := url.Parse(pageURL); err == nil {
			parsed = u
		}
	}

	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return PageInfo{}
	}

	return PageInfo{
		Title:   extractor.NormalizeName(article.Title),
		Excerpt: extractor.NormalizeName(article.Excerpt),
	}
}

// Banner prints the start-of-run header.
func Banner(w io.Writer, topN int) {
	fmt.Fprintln(w, "🚀 GitHub Trending Repository Scraper")
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintf(w, "Target: top %d repositories\n", topN)
}

// Print writes the success banner and the numbered repository list.
func Print(w io.Writer, s Summary) {
	fmt.Fprintf(w, "\n🎉 Successfully scraped %d trending repositories!\n", len(s.Records))
	if s.Page.Title != "" {
		fmt.Fprintf(w, "📰 Source: %s\n", s.Page.Title)
	}
	if s.Fallback {
		fmt.Fprintf(w, "⚠️  Used fallback selector %s; the page layout may have changed\n", s.Strategy)
	}
	if s.File != "" {
		fmt.Fprintf(w, "📁 Saved to: %s\n", s.File)
	}

	fmt.Fprintln(w, "📊 Results:")
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
	for i, r := range s.Records {
		fmt.Fprintf(w, "%d. %s\n", i+1, r.Name)
		fmt.Fprintf(w, "   🔗 %s\n\n", r.Link)
	}
	fmt.Fprintln(w, "✅ Scraping completed successfully!")
}

// Failure writes the failure banner for err.
func Failure(w io.Writer, err error) {
	fmt.Fprintf(w, "❌ Scraping failed: %v\n", err)
}
