package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/byteowlz/trendr/internal/extractor"
)

const articlePage = `<!DOCTYPE html>
<html><head><title>Trending repositories on GitHub today</title></head>
<body>
<main>
  <article>
    <h1>Trending</h1>
    <p>See what the GitHub community is most excited about today. These repositories are
    gaining stars quickly, and the list is refreshed throughout the day as new projects
    catch the attention of developers all around the world.</p>
    <p>Each entry shows the owner and name of the repository, a short description written by
    its maintainers, the primary language, and how many stars it collected in the period.</p>
    <p>Use the filters to narrow the list down to a spoken language, a programming language,
    or a date range, and come back tomorrow to see what else is climbing the chart.</p>
  </article>
</main>
</body></html>`

func TestDescribe_Title(t *testing.T) {
	info := Describe(articlePage, "https://github.com/trending")
	if !strings.Contains(info.Title, "Trending repositories") {
		t.Errorf("expected page title, got %q", info.Title)
	}
	if strings.Contains(info.Title, "\n") || strings.Contains(info.Excerpt, "\n") {
		t.Errorf("expected normalized whitespace, got %+v", info)
	}
}

func TestDescribe_EmptyInput(t *testing.T) {
	if info := Describe("   ", ""); info != (PageInfo{}) {
		t.Errorf("expected empty info, got %+v", info)
	}
}

func TestBanner(t *testing.T) {
	var buf bytes.Buffer
	Banner(&buf, 5)
	if !strings.Contains(buf.String(), "top 5 repositories") {
		t.Errorf("unexpected banner: %q", buf.String())
	}
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, Summary{
		Records: []extractor.Record{
			{Name: "test / repo1", Link: "https://github.com/test/repo1"},
			{Name: "test / repo2", Link: "https://github.com/test/repo2"},
		},
		File: "trending_repositories_20250304_150607.csv",
		Page: PageInfo{Title: "Trending repositories on GitHub today"},
	})

	out := buf.String()
	for _, want := range []string{
		"Successfully scraped 2 trending repositories",
		"Saved to: trending_repositories_20250304_150607.csv",
		"Source: Trending repositories on GitHub today",
		"1. test / repo1\n   🔗 https://github.com/test/repo1",
		"2. test / repo2\n   🔗 https://github.com/test/repo2",
		strings.Repeat("-", 80),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "fallback") {
		t.Errorf("fallback warning should not be printed:\n%s", out)
	}
}

func TestPrint_FallbackAndStdout(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, Summary{
		Records:  []extractor.Record{{Name: "a / b", Link: "https://github.com/a/b"}},
		Strategy: `h2[class*="h3"]`,
		Fallback: true,
	})

	out := buf.String()
	if !strings.Contains(out, `fallback selector h2[class*="h3"]`) {
		t.Errorf("expected fallback warning:\n%s", out)
	}
	if strings.Contains(out, "Saved to") {
		t.Errorf("no file line expected when writing to stdout:\n%s", out)
	}
}

func TestFailure(t *testing.T) {
	var buf bytes.Buffer
	Failure(&buf, errors.New("no repositories found"))
	if got := buf.String(); got != "❌ Scraping failed: no repositories found\n" {
		t.Errorf("unexpected failure output %q", got)
	}
}
