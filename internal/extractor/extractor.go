package extractor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/byteowlz/trendr/internal/logger"
)

// DefaultBaseURL prefixes site-relative links.
const DefaultBaseURL = "https://github.com"

var (
	// ErrNoLink means no link finder located an anchor inside a container.
	ErrNoLink = errors.New("no repository link found")
	// ErrIncomplete means an anchor was found but its name or href was empty.
	ErrIncomplete = errors.New("incomplete repository record")
	// ErrUnparseable is returned when the input cannot be read as markup.
	ErrUnparseable = errors.New("markup could not be parsed")
)

// Record is one repository entry from the listing.
type Record struct {
	Name string
	Link string
}

// Outcome is the result of one extraction pass plus what it had to do to get there.
type Outcome struct {
	Records    []Record
	Strategy   string // Name of the locator that matched, "" when none did
	Fallback   bool   // True when the heading fallback was used
	Containers int    // Elements matched by the winning locator
	Skipped    int    // Candidates that produced no record
}

type Extractor struct {
	baseURL    string
	containers []Locator
	heading    Locator
}

type Option func(*options)

type options struct {
	baseURL   string
	selectors []string
	heading   string
}

// WithBaseURL sets the URL used to resolve site-relative links.
func WithBaseURL(base string) Option {
	return func(o *options) { o.baseURL = base }
}

// WithContainerSelectors replaces the ordered container selector list.
func WithContainerSelectors(selectors ...string) Option {
	return func(o *options) { o.selectors = selectors }
}

// WithHeadingSelector replaces the heading fallback selector.
func WithHeadingSelector(selector string) Option {
	return func(o *options) { o.heading = selector }
}

// New builds an Extractor. It fails only if a selector does not compile.
func New(opts ...Option) (*Extractor, error) {
	o := options{
		baseURL:   DefaultBaseURL,
		selectors: DefaultContainerSelectors,
		heading:   DefaultHeadingSelector,
	}
	for _, opt := range opts {
		opt(&o)
	}

	containers, err := compileLocators(o.selectors)
	if err != nil {
		return nil, fmt.Errorf("container selectors: %w", err)
	}
	heading, err := SelectorLocator(o.heading)
	if err != nil {
		return nil, fmt.Errorf("heading selector: %w", err)
	}

	return &Extractor{
		baseURL:    strings.TrimRight(o.baseURL, "/"),
		containers: containers,
		heading:    heading,
	}, nil
}

// Extract returns at most limit records from markup, in document order.
func (e *Extractor) Extract(markup string, limit int) ([]Record, error) {
	outcome, err := e.Run(markup, limit)
	if err != nil {
		return nil, err
	}
	return outcome.Records, nil
}

// Run is Extract with diagnostics. Problems with individual containers are
// logged and skipped; only unreadable input is returned as an error.
func (e *Extractor) Run(markup string, limit int) (*Outcome, error) {
	outcome := &Outcome{Records: []Record{}}
	if limit <= 0 {
		return outcome, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return outcome, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	if loc, containers, ok := firstMatch(doc, e.containers); ok {
		outcome.Strategy = loc.Name
		outcome.Containers = containers.Length()
		logger.Info("found repositories", "count", outcome.Containers, "selector", loc.Name)
		e.collect(outcome, containers, limit, e.containerRecord)
	} else {
		logger.Warn("standard selectors failed, trying fallback method", "selector", e.heading.Name)
		headings := e.heading.Find(doc)
		if headings.Length() > 0 {
			outcome.Strategy = e.heading.Name
			outcome.Fallback = true
			outcome.Containers = headings.Length()
		}
		e.collect(outcome, headings, limit, e.headingRecord)
	}

	logger.Info("parsed repositories", "count", len(outcome.Records), "skipped", outcome.Skipped)
	return outcome, nil
}

// collect walks the first limit candidates and keeps every one that yields a record.
func (e *Extractor) collect(outcome *Outcome, candidates *goquery.Selection, limit int, build func(*goquery.Selection) (Record, error)) {
	candidates.EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= limit {
			return false
		}
		rec, err := safely(i, s, build)
		if err != nil {
			outcome.Skipped++
			if errors.Is(err, ErrIncomplete) {
				logger.Debug("skipping repository element", "index", i+1, "error", err)
			} else {
				logger.Warn("error parsing repository element", "index", i+1, "error", err)
			}
			return true
		}
		logger.Debug("found repository", "index", i+1, "name", rec.Name)
		outcome.Records = append(outcome.Records, rec)
		return true
	})
}

// safely runs build for one candidate, turning a panic into an error so a
// single bad element cannot abort the batch.
func safely(i int, s *goquery.Selection, build func(*goquery.Selection) (Record, error)) (rec Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("element %d: recovered from panic: %v", i+1, r)
		}
	}()
	return build(s)
}

func (e *Extractor) containerRecord(container *goquery.Selection) (Record, error) {
	for _, lf := range linkFinders {
		if a := lf.find(container); a != nil {
			return e.record(a)
		}
	}
	return Record{}, ErrNoLink
}

func (e *Extractor) headingRecord(heading *goquery.Selection) (Record, error) {
	a := firstAnchor(heading)
	if a == nil {
		return Record{}, ErrNoLink
	}
	return e.record(a)
}

func (e *Extractor) record(a *goquery.Selection) (Record, error) {
	href, _ := a.Attr("href")
	rec := Record{
		Name: NormalizeName(a.Text()),
		Link: e.ResolveLink(href),
	}
	if rec.Name == "" || rec.Link == "" {
		return Record{}, fmt.Errorf("%w: name=%q link=%q", ErrIncomplete, rec.Name, rec.Link)
	}
	return rec, nil
}

// NormalizeName collapses every whitespace run to one space and trims the ends.
func NormalizeName(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ResolveLink prefixes site-relative hrefs with the base URL and returns any
// other href unchanged.
func (e *Extractor) ResolveLink(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "/") {
		return e.baseURL + href
	}
	return href
}
