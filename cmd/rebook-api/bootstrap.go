package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/RebookBox/config"
	rebookapi "github.com/BearBump/RebookBox/internal/api/rebook_api"
	"github.com/BearBump/RebookBox/internal/broker/kafka"
	"github.com/BearBump/RebookBox/internal/browser"
	"github.com/BearBump/RebookBox/internal/browser/pwbrowser"
	"github.com/BearBump/RebookBox/internal/cache/locallimit"
	"github.com/BearBump/RebookBox/internal/cache/rediscache"
	"github.com/BearBump/RebookBox/internal/integrations/assistant"
	"github.com/BearBump/RebookBox/internal/integrations/assistant/fake"
	"github.com/BearBump/RebookBox/internal/integrations/assistant/openaiassistant"
	"github.com/BearBump/RebookBox/internal/services/lookup"
	"github.com/BearBump/RebookBox/internal/services/rebook"
	"github.com/joho/godotenv"
)

const defaultLookupCompletedTopic = "rebook.lookup.completed"

type rebookAPIApp struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   rebookAPIOpts
	api    *rebookapi.RebookAPI

	// closed in reverse order, so the browser engine goes last
	closers []func() error
}

func mustBootstrapRebookAPI() *rebookAPIApp {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("load .env", "error", err.Error())
	}

	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	httpAddr := cfg.RebookBox.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8000"
	}
	topic := cfg.Kafka.LookupCompletedTopicName
	if topic == "" {
		topic = defaultLookupCompletedTopic
	}

	app := &rebookAPIApp{}

	engine, err := pwbrowser.Start(browserOptions(cfg.Browser))
	if err != nil {
		panic(fmt.Sprintf("failed to start browser engine: %v", err))
	}
	app.closers = append(app.closers, engine.Stop)

	lookupSvc := newLookupService(engine, cfg)

	asst, err := newAssistant(cfg.Assistant)
	if err != nil {
		app.Close()
		panic(fmt.Sprintf("failed to configure assistant: %v", err))
	}

	var producer rebook.Producer
	if brokers := cfg.Kafka.Brokers(); brokers != nil {
		p := kafka.NewProducer(brokers)
		app.closers = append(app.closers, p.Close)
		producer = p
		slog.Info("lookup events enabled", "brokers", brokers, "topic", topic)
	}

	limiter, closeLimiter := newLimiter(cfg)
	if closeLimiter != nil {
		app.closers = append(app.closers, closeLimiter)
	}

	svc := rebook.New(lookupSvc, asst, producer, topic)
	app.api = rebookapi.New(svc, rebookapi.Options{
		AuthRequired:      cfg.Auth.IsRequired(),
		SharedSecret:      cfg.Auth.SharedSecret,
		Limiter:           limiter,
		Stats:             lookupSvc,
		TrustProxyHeaders: cfg.RebookBox.TrustProxyHeaders,
	})
	app.opts = rebookAPIOpts{
		httpAddr:    httpAddr,
		swaggerPath: os.Getenv("swaggerPath"),
	}
	app.ctx, app.cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	slog.Info("rebook-api configured",
		"auth_required", cfg.Auth.IsRequired(),
		"assistant_enabled", asst != nil,
		"rate_limit_per_minute", cfg.RebookBox.RateLimitPerMinute,
	)
	return app
}

func browserOptions(c config.BrowserConfig) pwbrowser.Options {
	o := pwbrowser.DefaultOptions()
	if c.Headless != nil {
		o.Headless = *c.Headless
	}
	o.Install = c.Install
	if c.UserAgent != "" {
		o.UserAgent = c.UserAgent
	}
	if c.Locale != "" {
		o.Locale = c.Locale
	}
	if c.Timezone != "" {
		o.TimezoneID = c.Timezone
	}
	if c.ViewportWidth > 0 && c.ViewportHeight > 0 {
		o.ViewportWidth, o.ViewportHeight = c.ViewportWidth, c.ViewportHeight
	}
	if c.NavigationTimeoutMs > 0 {
		o.NavigationTimeout = time.Duration(c.NavigationTimeoutMs) * time.Millisecond
	}
	if c.ActionTimeoutMs > 0 {
		o.ActionTimeout = time.Duration(c.ActionTimeoutMs) * time.Millisecond
	}
	return o
}

func newLookupService(launcher browser.Launcher, cfg *config.Config) *lookup.Service {
	sel := lookup.DefaultSelectors().WithOverrides(lookup.Selectors(cfg.Selectors))
	return lookup.New(launcher, cfg.Browser.LookupURL, sel).WithTiming(
		time.Duration(cfg.Browser.OutcomeTimeoutMs)*time.Millisecond,
		time.Duration(cfg.Browser.PollIntervalMs)*time.Millisecond,
	)
}

// newAssistant returns nil when the assistant is disabled.
func newAssistant(c config.AssistantConfig) (assistant.Client, error) {
	if !c.IsEnabled() {
		return nil, nil
	}
	if c.Backend == "fake" {
		return fake.New(), nil
	}
	cl, err := openaiassistant.New(openaiassistant.Config{
		APIKey:       c.APIKey,
		AssistantID:  c.AssistantID,
		BaseURL:      c.BaseURL,
		Prompt:       c.Prompt,
		PollInterval: time.Duration(c.PollIntervalMs) * time.Millisecond,
		MaxWait:      time.Duration(c.MaxWaitSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return cl, nil
}

// newLimiter prefers redis so limits hold across replicas. It returns a nil
// limiter when rate limiting is off.
func newLimiter(cfg *config.Config) (rebookapi.RateLimiter, func() error) {
	perMin := cfg.RebookBox.RateLimitPerMinute
	if perMin <= 0 {
		return nil, nil
	}
	if addr := cfg.Redis.Addr(); addr != "" {
		rl := rediscache.NewRateLimiter(addr, int64(perMin), time.Minute)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rl.Ping(ctx); err != nil {
			slog.Warn("redis not reachable, requests pass until it is", "addr", addr, "error", err.Error())
		}
		return rl, rl.Close
	}
	return locallimit.New(perMin, time.Minute), nil
}

func (a *rebookAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("shutdown", "error", err.Error())
		}
	}
	a.closers = nil
}

func (a *rebookAPIApp) Run() error {
	return runRebookAPI(a.ctx, a.opts, a.api)
}
