package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"boardwatch/internal/board"
	"boardwatch/internal/cache"
	"boardwatch/internal/client/jiuyan"
	"boardwatch/internal/client/tdx"
	"boardwatch/internal/config"
	"boardwatch/internal/db"
	"boardwatch/internal/export"
	"boardwatch/internal/logger"
	"boardwatch/internal/news"
	"boardwatch/internal/pipeline"
	gormrepository "boardwatch/internal/repository/gorm"
	"boardwatch/internal/service"
)

// app holds every long-lived dependency built from the config.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	db       *db.DB
	store    *gormrepository.Store
	cache    cache.Store
	fetcher  *board.Fetcher
	pipeline *pipeline.Pipeline
}

func loadApp() (*app, error) {
	cfg, err := config.Load(configPath, envOnly)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	return newApp(cfg, log)
}

func newApp(cfg config.Config, log *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: log}

	if cfg.DB.Enabled {
		conn, err := db.Open(cfg.DB)
		if err != nil {
			return nil, err
		}
		if err := db.SetTimezone(conn, cfg.DB.Timezone); err != nil {
			log.Warn("failed to set timezone", zap.Error(err))
		}
		if err := db.AutoMigrate(conn); err != nil {
			_ = db.Close(conn)
			return nil, err
		}
		a.db = conn
		a.store = gormrepository.New(conn.Gorm)
	}

	store, err := cache.New(cfg.Cache)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.cache = store

	loc := cfg.App.Location()
	var source board.Source = tdx.NewClient(&http.Client{Timeout: cfg.Board.Timeout}, tdx.Options{
		Host:        cfg.Board.BaseURL,
		UserAgent:   cfg.Board.UserAgent,
		Referer:     cfg.Board.Referer,
		MinInterval: cfg.Board.MinInterval,
	})
	if a.cache != nil {
		source = &board.CachedSource{
			Next:   source,
			Cache:  a.cache,
			TTL:    cfg.Cache.TTL,
			Prefix: cfg.Cache.Prefix,
			Logger: log,
			Now:    func() time.Time { return time.Now().In(loc) },
		}
	}

	fetcher := &board.Fetcher{
		Source:      source,
		Variants:    variantsFrom(cfg.Board.Variants),
		ForceToday:  cfg.Board.ForceToday,
		DateDelay:   cfg.Board.DateDelay,
		DateTimeout: cfg.Board.DateTimeout,
		Logger:      log,
	}
	if a.store != nil && cfg.DB.StoreRaw {
		rec := &service.SnapshotRecorder{Repo: a.store, Logger: log}
		fetcher.OnPayload = rec.Record
	}

	a.fetcher = fetcher

	p := &pipeline.Pipeline{
		Board:           fetcher,
		Writer:          export.NewWriter(cfg.Export),
		TopN:            cfg.Board.TopN,
		MaxLookbackDays: cfg.Board.MaxLookbackDays,
		Location:        loc,
		Logger:          log,
	}
	if cfg.News.Enabled {
		collector, err := newCollector(cfg.News, loc, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		p.News = collector
	}
	if a.store != nil {
		p.Sink = &service.StoreSink{Repo: a.store}
	}
	a.pipeline = p
	return a, nil
}

func newCollector(cfg config.NewsConfig, loc *time.Location, log *zap.Logger) (*news.Collector, error) {
	var (
		lx  *news.Lexicon
		err error
	)
	if path := strings.TrimSpace(cfg.LexiconPath); path != "" {
		lx, err = news.LoadLexicon(path)
	} else {
		lx, err = news.DefaultLexicon()
	}
	if err != nil {
		return nil, err
	}

	c := &news.Collector{
		Page:      jiuyan.NewClient(&http.Client{Timeout: cfg.Timeout}, cfg.BaseURL, cfg.UserAgent),
		Parser:    news.NewPageParser(cfg.BaseURL, cfg.PreviewLen, cfg.Limit, loc),
		Extractor: news.NewExtractor(lx),
		Limit:     cfg.Limit,
		Logger:    log,
	}
	if cfg.RSS.Enabled && len(cfg.RSS.Feeds) > 0 {
		c.Feeds = news.NewFeedSource(cfg.RSS.Feeds, cfg.PreviewLen, loc)
	}
	return c, nil
}

func variantsFrom(in []config.VariantConfig) []board.Variant {
	out := make([]board.Variant, 0, len(in))
	for _, v := range in {
		cat := strings.TrimSpace(v.Category)
		sort := strings.TrimSpace(v.SortField)
		if cat == "" || sort == "" {
			continue
		}
		out = append(out, board.Variant{Category: cat, SortField: sort})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (a *app) Close() {
	if a == nil {
		return
	}
	var errs []error
	if rs, ok := a.cache.(*cache.RedisStore); ok {
		errs = append(errs, rs.Close())
	}
	errs = append(errs, db.Close(a.db))
	if err := errors.Join(errs...); err != nil && a.logger != nil {
		a.logger.Warn("close app resources", zap.Error(err))
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
