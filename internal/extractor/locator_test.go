package extractor

import (
	"testing"
)

func TestSelectorLocator_Matches(t *testing.T) {
	doc := mustDoc(t, `<article class="Box-row x"></article><div class="Box-row"></div>`)

	tests := []struct {
		selector string
		want     int
	}{
		{`article.Box-row`, 1},
		{`.Box-row`, 2},
		{`article[class*="Box-row"]`, 1},
		{`.repo-list-item`, 0},
		{`[data-testid="repository-item"]`, 0},
	}

	for _, tt := range tests {
		loc, err := SelectorLocator(tt.selector)
		if err != nil {
			t.Fatalf("SelectorLocator(%q) error = %v", tt.selector, err)
		}
		if loc.Name != tt.selector {
			t.Errorf("expected name %q, got %q", tt.selector, loc.Name)
		}
		if got := loc.Find(doc).Length(); got != tt.want {
			t.Errorf("%s: expected %d matches, got %d", tt.selector, tt.want, got)
		}
	}
}

func TestSelectorLocator_Invalid(t *testing.T) {
	for _, sel := range []string{"", "   ", "div[", "a[href"} {
		if _, err := SelectorLocator(sel); err == nil {
			t.Errorf("expected error for %q", sel)
		}
	}
}

func TestFirstMatch_StopsAtFirstHit(t *testing.T) {
	doc := mustDoc(t, `<div class="b"></div><div class="c"></div><div class="c"></div>`)
	locators, err := compileLocators([]string{".a", ".b", ".c"})
	if err != nil {
		t.Fatalf("compileLocators() error = %v", err)
	}

	loc, sel, ok := firstMatch(doc, locators)
	if !ok {
		t.Fatal("expected a match")
	}
	if loc.Name != ".b" || sel.Length() != 1 {
		t.Errorf("expected .b with 1 match, got %s with %d", loc.Name, sel.Length())
	}

	if _, _, ok := firstMatch(doc, locators[:1]); ok {
		t.Error("expected no match for .a alone")
	}
}

func TestHeadingLink(t *testing.T) {
	doc := mustDoc(t, `<article><a href="/first">first</a><h2><span>x</span><a href="/in/heading">h</a></h2></article>`)
	a := headingLink(doc.Find("article"))
	if a == nil {
		t.Fatal("expected anchor")
	}
	if href, _ := a.Attr("href"); href != "/in/heading" {
		t.Errorf("expected heading anchor, got %q", href)
	}

	noHeading := mustDoc(t, `<article><a href="/x/y">x</a></article>`)
	if headingLink(noHeading.Find("article")) != nil {
		t.Error("expected nil without h2")
	}

	emptyHeading := mustDoc(t, `<article><h2>title</h2><a href="/x/y">x</a></article>`)
	if headingLink(emptyHeading.Find("article")) != nil {
		t.Error("expected nil for h2 without anchor")
	}
}

func TestSiteRelativeLink(t *testing.T) {
	doc := mustDoc(t, `<div><a href="https://example.com/a/b">abs</a><a>none</a><a href="/owner/repo">rel</a><a href="/second">2</a></div>`)
	a := siteRelativeLink(doc.Find("div"))
	if a == nil {
		t.Fatal("expected anchor")
	}
	if href, _ := a.Attr("href"); href != "/owner/repo" {
		t.Errorf("expected first site-relative anchor, got %q", href)
	}
}

func TestRepositoryPathLink(t *testing.T) {
	doc := mustDoc(t, `<div><a href="https://example.com/a/b">abs</a><a href="readme">plain</a><a href="owner/repo">path</a></div>`)
	a := repositoryPathLink(doc.Find("div"))
	if a == nil {
		t.Fatal("expected anchor")
	}
	if href, _ := a.Attr("href"); href != "owner/repo" {
		t.Errorf("expected owner/repo, got %q", href)
	}

	none := mustDoc(t, `<div><a href="http://x.org/a">x</a><a href="#top">top</a></div>`)
	if repositoryPathLink(none.Find("div")) != nil {
		t.Error("expected no repository-path anchor")
	}
}

func TestLooksLikeRepositoryPath(t *testing.T) {
	tests := map[string]bool{
		"owner/repo":             true,
		"/owner/repo":            true,
		"owner/repo/tree/main":   true,
		"readme":                 false,
		"":                       false,
		"https://github.com/a/b": false,
		"http://github.com/a/b":  false,
		"httpfoo/bar":            false,
		"#anchor":                false,
	}
	for href, want := range tests {
		if got := looksLikeRepositoryPath(href); got != want {
			t.Errorf("looksLikeRepositoryPath(%q) = %v, want %v", href, got, want)
		}
	}
}

func TestContainerRecord_FinderOrder(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		name string
		html string
		want Record
	}{
		{
			name: "heading wins over earlier anchors",
			html: `<article><a href="/login">Star</a><h2><a href="/o/heading">o / heading</a></h2></article>`,
			want: Record{Name: "o / heading", Link: "https://github.com/o/heading"},
		},
		{
			name: "site-relative without heading",
			html: `<article><a href="https://elsewhere.org">x</a><a href="/o/relative">o / relative</a></article>`,
			want: Record{Name: "o / relative", Link: "https://github.com/o/relative"},
		},
		{
			name: "repository path kept verbatim",
			html: `<article><a href="https://elsewhere.org">x</a><a href="o/path">o / path</a></article>`,
			want: Record{Name: "o / path", Link: "o/path"},
		},
		{
			name: "absolute heading link kept verbatim",
			html: `<article><h2><a href="https://github.com/o/abs">o / abs</a></h2></article>`,
			want: Record{Name: "o / abs", Link: "https://github.com/o/abs"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustDoc(t, tt.html)
			got, err := e.containerRecord(doc.Find("article").First())
			if err != nil {
				t.Fatalf("containerRecord() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"test \n / repo1":         "test / repo1",
		"  a\t\t/  b  ":           "a / b",
		"\n\n":                    "",
		"single":                  "single",
		"owner /\n      name\n  ": "owner / name",
	}
	for in, want := range tests {
		if got := NormalizeName(in); got != want {
			t.Errorf("NormalizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveLink(t *testing.T) {
	e := newTestExtractor(t)
	tests := map[string]string{
		"/test/repo1":                   "https://github.com/test/repo1",
		" /test/repo1 ":                 "https://github.com/test/repo1",
		"https://gitlab.com/group/proj": "https://gitlab.com/group/proj",
		"owner/repo":                    "owner/repo",
		"":                              "",
	}
	for in, want := range tests {
		if got := e.ResolveLink(in); got != want {
			t.Errorf("ResolveLink(%q) = %q, want %q", in, got, want)
		}
	}
}
