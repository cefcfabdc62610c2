// Package pipeline drives one digest run: fetch, merge, classify, analyze,
// persist, render and push.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"news_digest/internal/analysis"
	"news_digest/internal/ledger"
	"news_digest/internal/merge"
	"news_digest/internal/model"
	"news_digest/internal/notify"
	"news_digest/internal/render"
	"news_digest/internal/source"
	"news_digest/internal/storage"
	"news_digest/internal/topic"
)

const (
	defaultFetchTimeout      = 60 * time.Second
	defaultSeenRetentionDays = 30
	feedPreviewCount         = 10
)

// Options wires the pipeline's collaborators and output locations.
type Options struct {
	Sources    []source.Source
	Store      storage.Storage // may be nil: cross-run dedup disabled
	Classifier *topic.Classifier
	Analyzer   *analysis.Service
	Ledger     ledger.Store
	Notifiers  []notify.Notifier

	Keywords []string

	RSSPath      string
	DailyDir     string
	ReadmePath   string
	UpdateReadme bool
	DocBaseURL   string

	SeenRetentionDays int

	Log *slog.Logger
}

// Result summarizes what one run produced.
type Result struct {
	SourceCounts map[string]int
	Merged       int
	FilteredSeen int
	Stats        model.TopicStatsDay
	DocPath      string
}

// Pipeline runs the digest end to end. A failing stage degrades the run
// instead of aborting it: sources contribute nothing, the analysis falls back,
// a broken artifact is logged and the rest are still written.
type Pipeline struct {
	opts Options
	log  *slog.Logger
	now  func() time.Time

	fetchTimeout time.Duration
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	if opts.SeenRetentionDays <= 0 {
		opts.SeenRetentionDays = defaultSeenRetentionDays
	}
	return &Pipeline{
		opts:         opts,
		log:          opts.Log,
		now:          time.Now,
		fetchTimeout: defaultFetchTimeout,
	}
}

// Run executes one digest. It returns an error only when the context is
// canceled; everything else degrades gracefully.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	lists, counts := p.fetchAll(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	articles := merge.Merge(lists, p.opts.Keywords)
	p.log.Info("merged articles", "total", len(articles))

	articles, filteredSeen := p.dropSeen(ctx, articles)
	if filteredSeen > 0 {
		p.log.Info("dropped previously published articles", "count", filteredSeen)
	}

	digest := p.opts.Analyzer.Analyze(ctx, articles, p.opts.Keywords)
	classifications := p.opts.Classifier.Classify(ctx, articles)

	now := p.now()
	date := now.UTC().Format("2006-01-02")
	stats := topic.SummarizeByDay(date, articles, classifications)

	trend := p.upsertLedger(stats)

	docPath := p.writeArtifacts(date, digest, articles, stats, trend)
	p.push(ctx, date, digest, docPath)
	p.recordSeen(ctx, articles, now)

	return &Result{
		SourceCounts: counts,
		Merged:       len(articles) + filteredSeen,
		FilteredSeen: filteredSeen,
		Stats:        stats,
		DocPath:      docPath,
	}, nil
}

// fetchAll fans out over the sources concurrently. A failing source
// contributes an empty list.
func (p *Pipeline) fetchAll(ctx context.Context) ([][]model.Article, map[string]int) {
	lists := make([][]model.Article, len(p.opts.Sources))
	counts := make(map[string]int, len(p.opts.Sources))

	var wg sync.WaitGroup
	for i, src := range p.opts.Sources {
		wg.Add(1)
		go func(i int, src source.Source) {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
			defer cancel()

			articles, err := src.Fetch(fetchCtx)
			if err != nil {
				p.log.Warn("source fetch failed", "source", src.Name(), "error", err)
				return
			}
			lists[i] = articles
		}(i, src)
	}
	wg.Wait()

	for i, src := range p.opts.Sources {
		counts[src.Name()] = len(lists[i])
		p.log.Info("source fetched", "source", src.Name(), "articles", len(lists[i]))
	}
	return lists, counts
}

func (p *Pipeline) dropSeen(ctx context.Context, articles []model.Article) ([]model.Article, int) {
	if p.opts.Store == nil {
		return articles, 0
	}
	since := p.now().AddDate(0, 0, -p.opts.SeenRetentionDays)
	seen, err := p.opts.Store.RecentSeen(ctx, since)
	if err != nil {
		p.log.Warn("loading seen articles failed, skipping cross-run dedup", "error", err)
		return articles, 0
	}
	return merge.WithoutSeen(articles, seen)
}

func (p *Pipeline) upsertLedger(stats model.TopicStatsDay) []model.TopicTrendSummary {
	history, err := ledger.UpsertDay(p.opts.Ledger, stats)
	if err != nil {
		p.log.Warn("updating topic history failed", "error", err)
		history = ledger.ReadHistory(p.opts.Ledger)
	}
	return ledger.BuildTrendSummary(history)
}

// writeArtifacts renders the feed, the daily document and the README. Each
// artifact failure is logged on its own so the others still land.
func (p *Pipeline) writeArtifacts(date string, digest model.DigestAnalysis, articles []model.Article, stats model.TopicStatsDay, trend []model.TopicTrendSummary) string {
	preview := articles
	if len(preview) > feedPreviewCount {
		preview = preview[:feedPreviewCount]
	}
	xml := render.FeedXML(render.FeedOptions{
		Analysis:     digest,
		Articles:     preview,
		ChannelTitle: fmt.Sprintf("%s (%s)", digest.Title, date),
		Now:          p.now().UTC(),
	})
	if err := render.WriteFile(p.opts.RSSPath, xml); err != nil {
		p.log.Warn("writing rss feed failed", "path", p.opts.RSSPath, "error", err)
	}

	docName := fmt.Sprintf("%s-%s.md", date, digest.GeneratedAt.UTC().Format("15-04-05"))
	docPath := filepath.Join(p.opts.DailyDir, docName)
	doc := render.DailyMarkdown(render.DailyDoc{
		Date:     date,
		Analysis: digest,
		Articles: articles,
		Stats:    stats,
	})
	if err := render.WriteFile(docPath, doc); err != nil {
		p.log.Warn("writing daily document failed", "path", docPath, "error", err)
	}

	if p.opts.UpdateReadme {
		err := render.UpdateReadme(render.ReadmeUpdate{
			Path:     p.opts.ReadmePath,
			Date:     date,
			Analysis: digest,
			DocPath:  docPath,
			Stats:    stats,
			Trend:    trend,
		})
		if err != nil {
			p.log.Warn("updating readme failed", "path", p.opts.ReadmePath, "error", err)
		}
	}
	return docPath
}

func (p *Pipeline) push(ctx context.Context, date string, digest model.DigestAnalysis, docPath string) {
	docURL := docPath
	if p.opts.DocBaseURL != "" {
		docURL = p.opts.DocBaseURL + "/" + filepath.Base(docPath)
	}
	subject := fmt.Sprintf("Daily Digest - %s", date)
	body := render.DigestText(digest, docURL)

	for _, n := range p.opts.Notifiers {
		if err := n.Send(ctx, subject, body); err != nil {
			p.log.Warn("push failed", "channel", n.Name(), "error", err)
		}
	}
}

func (p *Pipeline) recordSeen(ctx context.Context, articles []model.Article, now time.Time) {
	if p.opts.Store == nil {
		return
	}
	if err := p.opts.Store.MarkSeen(ctx, articles); err != nil {
		p.log.Warn("recording published articles failed", "error", err)
	}
	pruned, err := p.opts.Store.Prune(ctx, now.AddDate(0, 0, -p.opts.SeenRetentionDays))
	if err != nil {
		p.log.Warn("pruning seen articles failed", "error", err)
		return
	}
	if pruned > 0 {
		p.log.Info("pruned seen articles", "count", pruned)
	}
}
