// Package trending scrapes the GitHub trending page into CSV in a single call.
package trending

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/byteowlz/trendr/internal/config"
	"github.com/byteowlz/trendr/internal/extractor"
	"github.com/byteowlz/trendr/internal/fetcher"
	"github.com/byteowlz/trendr/internal/logger"
	"github.com/byteowlz/trendr/internal/output"
	"github.com/byteowlz/trendr/internal/report"
)

// ErrNoRecords is returned when the page was fetched but nothing could be
// extracted. No output file is written in that case.
var ErrNoRecords = errors.New("no repositories found, the page structure might have changed")

type Scraper struct {
	config  *config.Config
	fetcher *fetcher.ContentFetcher
}

type RunOptions struct {
	TopN       int       // 0 = config extraction.top_n
	OutputDir  string    // "" = config output.directory
	Stdout     io.Writer // when set, CSV goes here instead of a file
	AllowEmpty bool      // write an empty CSV instead of returning ErrNoRecords
}

type Result struct {
	Records        []extractor.Record
	File           string
	Strategy       string
	Fallback       bool
	Skipped        int
	Page           report.PageInfo
	FetchedAt      time.Time
	ProcessingTime time.Duration
}

func New(cfg *config.Config) *Scraper {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Scraper{
		config:  cfg,
		fetcher: fetcher.NewContentFetcher(),
	}
}

// WithFetcher swaps the fetcher, mostly for tests.
func (s *Scraper) WithFetcher(f *fetcher.ContentFetcher) *Scraper {
	s.fetcher = f
	return s
}

// Run fetches the listing, extracts up to TopN repositories and writes them.
// A *fetcher.TransportError or *output.WriteError aborts the run; nothing is
// written after a transport failure.
func (s *Scraper) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	start := time.Now()
	cfg := s.config

	topN := opts.TopN
	if topN <= 0 {
		topN = cfg.Extraction.TopN
	}

	logger.Info("starting GitHub trending repositories scraper", "top_n", topN, "url", cfg.Source.URL)

	ex, err := extractor.New(
		extractor.WithBaseURL(cfg.Source.BaseURL),
		extractor.WithContainerSelectors(cfg.Extraction.ContainerSelectors...),
		extractor.WithHeadingSelector(cfg.Extraction.HeadingSelector),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build extractor: %w", err)
	}

	fetchOpts := fetcher.FetchOptions{
		Timeout:         time.Duration(cfg.Network.Timeout) * time.Second,
		UserAgent:       cfg.Network.UserAgent,
		BrowserAgent:    cfg.Network.BrowserAgent,
		FollowRedirects: cfg.Network.FollowRedirects,
		MaxRedirects:    cfg.Network.MaxRedirects,
		MaxBodyBytes:    cfg.Network.MaxBodyBytes,
	}

	page, err := s.fetcher.Fetch(ctx, cfg.Source.URL, fetchOpts)
	if err != nil {
		logger.Error("error fetching page", "error", err)
		return nil, err
	}

	result := &Result{FetchedAt: time.Now()}

	outcome, err := ex.Run(page.HTML, topN)
	if err != nil {
		// Unparseable markup counts as an empty extraction
		logger.Warn("could not parse page", "error", err)
		outcome = &extractor.Outcome{Records: []extractor.Record{}}
	}
	result.Records = outcome.Records
	result.Strategy = outcome.Strategy
	result.Fallback = outcome.Fallback
	result.Skipped = outcome.Skipped

	if len(result.Records) == 0 && !opts.AllowEmpty {
		logger.Error("no repositories found", "strategy", outcome.Strategy)
		result.ProcessingTime = time.Since(start)
		return result, ErrNoRecords
	}

	if opts.Stdout != nil {
		if err := output.WriteTo(opts.Stdout, result.Records); err != nil {
			return result, err
		}
	} else {
		dir := opts.OutputDir
		if dir == "" {
			dir = cfg.Output.Directory
		}
		path, err := output.NewCSVWriter(dir, cfg.Output.FilenamePrefix).Write(result.Records)
		if err != nil {
			logger.Error("error saving to CSV", "error", err)
			return result, err
		}
		result.File = path
	}

	result.Page = report.Describe(page.HTML, page.URL)
	if result.Page.Title == "" {
		result.Page.Title = page.Title
	}

	result.ProcessingTime = time.Since(start)
	return result, nil
}
