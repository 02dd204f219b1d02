package main

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"documind-bot/api/internal/config"
	"documind-bot/api/internal/llm"
	llmgemini "documind-bot/api/internal/llm/gemini"
	llmopenai "documind-bot/api/internal/llm/openai"
	"documind-bot/api/internal/logger"
	"documind-bot/api/internal/ocr"
	ocrgemini "documind-bot/api/internal/ocr/gemini"
	ocropenai "documind-bot/api/internal/ocr/openai"
	"documind-bot/api/internal/ocr/vision"
	"documind-bot/api/internal/ocr/yandex"
	"documind-bot/api/internal/render"
	"documind-bot/api/internal/secrets"
	"documind-bot/api/internal/session"
	"documind-bot/api/internal/store"
	"documind-bot/api/internal/telegram"
)

// app holds everything the bot needs at runtime.
type app struct {
	bot     *tgbotapi.BotAPI
	cache   store.TextCache
	ctrl    *session.Controller
	closers []func() error
	log     zerolog.Logger
}

func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{log: logger.WithComponent("app")}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	provider, err := a.secretProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := cfg.ResolveSecrets(ctx, provider); err != nil {
		return nil, err
	}

	engines, err := a.engines(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a.cache, err = openCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.cache.Close)
	startPurge(ctx, a.cache, cfg.CacheTTL, a.log)

	a.bot, err = tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	a.bot.Debug = false
	a.log.Info().Str("bot", a.bot.Self.UserName).Msg("authorized on telegram")

	a.ctrl = session.New(session.Deps{
		OCR:       engines.ocr,
		LLM:       engines.llm,
		Profiles:  engines.profiles,
		Cache:     a.cache,
		Messenger: telegram.NewMessenger(a.bot),
		Renderer:  render.New(cfg.RenderThreshold),
		Log:       zlog.Logger,
	})
	return a, nil
}

// Close releases clients in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}

// secretProvider reads the environment first, then GCP Secret Manager when a
// project is configured.
func (a *app) secretProvider(ctx context.Context, cfg *config.Config) (secrets.Provider, error) {
	chain := secrets.Chain{secrets.EnvProvider{}}
	if cfg.GCPProject == "" {
		return chain, nil
	}
	gcp, err := secrets.NewGCPProvider(ctx, cfg.GCPProject)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, gcp.Close)
	return append(chain, gcp), nil
}

type engineSet struct {
	ocr      *ocr.Extractor
	llm      *llm.Service
	profiles *llm.Profiles
}

func (a *app) engines(ctx context.Context, cfg *config.Config) (engineSet, error) {
	eng, err := a.ocrEngine(ctx, cfg)
	if err != nil {
		return engineSet{}, err
	}
	profiles := llm.DefaultProfiles()
	if cfg.ProfilesFile != "" {
		if profiles, err = llm.LoadProfiles(cfg.ProfilesFile); err != nil {
			return engineSet{}, err
		}
	}
	gen := newGenerator(cfg)
	a.log.Info().
		Str("ocr", eng.Name()).
		Str("llm", gen.Name()).
		Str("cache", cfg.CacheBackend).
		Int("render_threshold", cfg.RenderThreshold).
		Msg("engines ready")
	return engineSet{
		ocr:      ocr.NewExtractor(eng, zlog.Logger, cfg.OCRTimeout),
		llm:      llm.NewService(gen, zlog.Logger, cfg.LLMTimeout),
		profiles: profiles,
	}, nil
}

func (a *app) ocrEngine(ctx context.Context, cfg *config.Config) (ocr.Engine, error) {
	opt := ocr.Options{Langs: cfg.OCRLanguages, Model: cfg.OCRModel}
	switch cfg.OCREngine {
	case "yandex":
		return yandex.New(cfg.YCOAuthToken, cfg.YCFolderID, opt), nil
	case "gemini":
		return ocrgemini.New(cfg.GeminiAPIKey, cfg.GeminiModel, opt), nil
	case "openai":
		return ocropenai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, opt), nil
	default:
		e, err := vision.New(ctx, cfg.GoogleCredentialsJSON, cfg.GoogleCredentialsFile, opt)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, e.Close)
		return e, nil
	}
}

func newGenerator(cfg *config.Config) llm.Generator {
	switch cfg.LLMProvider {
	case "openai":
		return llmopenai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	case "deepseek":
		return llmopenai.NewDeepSeek(cfg.DeepSeekAPIKey, cfg.DeepSeekModel)
	default:
		return llmgemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
	}
}

func openCache(ctx context.Context, cfg *config.Config) (store.TextCache, error) {
	log := logger.WithComponent("store")
	switch cfg.CacheBackend {
	case "redis":
		c, err := store.NewRedisCache(ctx, store.RedisConfig{URL: cfg.RedisURL, TTL: cfg.CacheTTL})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("redis cache connected")
		return c, nil
	case "postgres":
		c, err := store.OpenPostgres(ctx, cfg.DatabaseURL, cfg.CacheTTL)
		if err != nil {
			return nil, err
		}
		log.Info().Str("db", config.SafeDSNSummary(cfg.DatabaseURL)).Msg("postgres cache connected")
		return c, nil
	case "sqlite":
		c, err := store.OpenSQLite(ctx, cfg.SQLitePath, cfg.CacheTTL)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("sqlite cache opened")
		return c, nil
	default:
		log.Warn().Msg("in-memory cache: texts are lost on restart")
		return store.NewMemoryCache(cfg.CacheTTL), nil
	}
}

// startPurge runs purgeLoop for SQL caches. A zero ttl keeps texts forever,
// like the other backends do, so nothing is started.
func startPurge(ctx context.Context, c store.TextCache, ttl time.Duration, log zerolog.Logger) bool {
	sc, ok := c.(*store.SQLCache)
	if !ok || ttl <= 0 {
		return false
	}
	go purgeLoop(ctx, sc, ttl, log)
	return true
}

// purgeLoop deletes expired rows; Redis and the memory cache expire on their own.
func purgeLoop(ctx context.Context, c *store.SQLCache, maxAge time.Duration, log zerolog.Logger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := c.PurgeOlderThan(ctx, maxAge)
			if err != nil {
				log.Warn().Err(err).Msg("purge failed")
				continue
			}
			if n > 0 {
				log.Info().Int64("rows", n).Msg("expired texts purged")
			}
		}
	}
}
