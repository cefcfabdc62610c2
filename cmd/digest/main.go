package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"news_digest/internal/analysis"
	"news_digest/internal/config"
	"news_digest/internal/ledger"
	"news_digest/internal/llm"
	"news_digest/internal/model"
	"news_digest/internal/notify"
	"news_digest/internal/pipeline"
	"news_digest/internal/scheduler"
	"news_digest/internal/source"
	"news_digest/internal/storage"
	"news_digest/internal/topic"
)

func main() {
	schedule := flag.String("schedule", "", "cron spec to re-run the digest on (empty: run once and exit)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel, cfg.LogFile)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	p := pipeline.New(pipeline.Options{
		Sources:      buildSources(cfg, log),
		Store:        store,
		Classifier:   topic.NewClassifier(newCompleter(cfg, log), log),
		Analyzer:     analysis.NewService(newCompleter(cfg, log), log),
		Ledger:       ledger.FileStore{Path: cfg.TopicStatsPath},
		Notifiers:    buildNotifiers(cfg, log),
		Keywords:     cfg.Keywords,
		RSSPath:      cfg.OutputRSSPath,
		DailyDir:     cfg.OutputDailyDir,
		ReadmePath:   cfg.ReadmePath,
		UpdateReadme: cfg.UpdateReadme,
		Log:          log,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *schedule != "" {
		run := func(ctx context.Context) {
			if _, err := p.Run(ctx); err != nil {
				log.Error("digest run failed", "error", err)
			}
		}
		sched, err := scheduler.New(*schedule, run, log)
		if err != nil {
			log.Error("create scheduler", "spec", *schedule, "error", err)
			os.Exit(1)
		}
		sched.Run(ctx)
		return
	}

	res, err := p.Run(ctx)
	if err != nil {
		log.Error("digest run failed", "error", err)
		os.Exit(1)
	}
	log.Info("digest complete",
		"articles", res.Merged,
		"dropped_seen", res.FilteredSeen,
		"doc", res.DocPath,
	)
}

// newCompleter returns nil when no API key is configured; classification and
// analysis then use their local fallbacks.
func newCompleter(cfg *config.Config, log *slog.Logger) llm.Completer {
	if cfg.OpenAIAPIKey == "" {
		return nil
	}
	return llm.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.LLMModel, log,
		llm.WithCandidates(cfg.LLMCandidates))
}

func buildSources(cfg *config.Config, log *slog.Logger) []source.Source {
	client := &http.Client{Timeout: 30 * time.Second}
	limit := cfg.MaxItemsPerSource
	days := cfg.TimeRangeDays

	sources := []source.Source{
		source.NewHackerNews(client, limit, days, log),
		source.NewRSS(client, feedConfigs(cfg.RSSFeeds, model.SourceRSS), limit, days, log),
	}
	if cfg.IncludeReddit {
		sources = append(sources, source.NewRSS(client, feedConfigs(cfg.RedditFeeds, model.SourceReddit), limit, days, log))
	}
	if cfg.IncludeProductHunt {
		sources = append(sources, source.NewRSS(client, feedConfigs(cfg.ProductHuntFeeds, model.SourceProductHunt), limit, days, log))
	}
	if cfg.IncludeGitHubTrending {
		sources = append(sources, source.NewGitHubTrending(client, cfg.GitHubToken, cfg.GitHubLanguages, limit, days, log))
	}
	if cfg.IncludeTwitter {
		sources = append(sources, source.NewTwitter(client, cfg.XBearerToken, cfg.XKeywords, limit, days, log))
	}
	return sources
}

func feedConfigs(feeds []string, sourceType model.SourceType) []source.FeedConfig {
	configs := make([]source.FeedConfig, 0, len(feeds))
	for _, feed := range feeds {
		configs = append(configs, source.FeedConfig{
			Name:       feedName(feed),
			URL:        feed,
			SourceType: sourceType,
			Language:   model.LangEN,
		})
	}
	return configs
}

// feedName derives a display name from the feed URL host.
func feedName(feed string) string {
	u, err := url.Parse(feed)
	if err != nil || u.Host == "" {
		return feed
	}
	return strings.TrimPrefix(u.Host, "www.")
}

func buildNotifiers(cfg *config.Config, log *slog.Logger) []notify.Notifier {
	var notifiers []notify.Notifier

	var api notify.TelegramAPI
	if cfg.TelegramBotToken != "" {
		bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			log.Warn("create telegram bot failed", "error", err)
		} else {
			api = bot
		}
	}
	notifiers = append(notifiers, notify.NewTelegram(api, cfg.TelegramChatID, log))

	if cfg.EmailEnabled {
		client := &http.Client{Timeout: 30 * time.Second}
		notifiers = append(notifiers, notify.NewEmail(client, cfg.ResendAPIKey, cfg.EmailFrom, cfg.EmailTo, log))
	}
	return notifiers
}

func newLogger(level, file string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	var w io.Writer = os.Stderr
	if file != "" {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
