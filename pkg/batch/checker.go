package batch

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/wikiforge/wikiparse/pkg/wikitext"

	"golang.org/x/sync/errgroup"
)

// Result describes one checked document.
type Result struct {
	Name      string
	Bytes     int
	Nodes     int
	Templates int
	Arguments int
	Links     int
	Headings  int
	Comments  int
	Tags      int
	// DuplicateParams counts template parameters given more than once.
	DuplicateParams int
	RoundTrip       bool
	// FirstDiff is the first byte offset where the serialization differs
	// from the input, or -1.
	FirstDiff int
	Duration  time.Duration
	// Err is set when the document could not be loaded.
	Err error
}

// OK reports whether the document loaded and round-tripped.
func (r Result) OK() bool { return r.Err == nil && r.RoundTrip }

// Check parses text and records its statistics and round-trip status.
func Check(p *wikitext.Parser, name, text string) Result {
	start := time.Now()
	root := p.Parse(text)
	r := Result{Name: name, Bytes: len(text), FirstDiff: -1}
	for n := range root.All() {
		r.Nodes++
		switch n := n.(type) {
		case *wikitext.TemplateNode:
			r.Templates++
			r.DuplicateParams += len(n.DuplicateKeys())
		case *wikitext.ArgumentNode:
			r.Arguments++
		case *wikitext.LinkNode:
			r.Links++
		case *wikitext.HeadingNode:
			r.Headings++
		case *wikitext.CommentNode:
			r.Comments++
		case *wikitext.TagNode:
			r.Tags++
		}
	}
	out := wikitext.Raw(root)
	r.FirstDiff = firstDiff(text, out)
	r.RoundTrip = r.FirstDiff < 0
	r.Duration = time.Since(start)
	return r
}

func firstDiff(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}

// Checker parses many documents concurrently. Each document gets its own
// scanner; the Parser is shared.
type Checker struct {
	Parser *wikitext.Parser
	Loader Loader
	// Workers bounds the number of documents in flight. Zero means GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
}

// Run checks names and returns one Result per name, in the same order.
// It stops early and returns the context error when ctx is cancelled.
func (c *Checker) Run(ctx context.Context, names []string) ([]Result, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := c.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(names))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range names {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			text, err := c.Loader.Load(name)
			if err != nil {
				logger.Warn("skipping document", "name", name, "error", err)
				results[i] = Result{Name: name, FirstDiff: -1, Err: err}
				return nil
			}
			results[i] = Check(c.Parser, name, text)
			if !results[i].RoundTrip {
				logger.Error("round trip failed", "name", name, "offset", results[i].FirstDiff)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Summary aggregates a batch of results.
type Summary struct {
	Documents  int
	Failed     int
	LoadErrors int
	Bytes      int
	Templates  int
	Links      int
	Headings   int
	Duplicates int
}

func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		s.Documents++
		if r.Err != nil {
			s.LoadErrors++
			continue
		}
		if !r.RoundTrip {
			s.Failed++
		}
		s.Bytes += r.Bytes
		s.Templates += r.Templates
		s.Links += r.Links
		s.Headings += r.Headings
		s.Duplicates += r.DuplicateParams
	}
	return s
}
