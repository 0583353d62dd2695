package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/boss-responder/internal/ai/gemini"
	"github.com/spigell/boss-responder/internal/browser"
	"github.com/spigell/boss-responder/internal/candidate"
	"github.com/spigell/boss-responder/internal/filtering"
	"github.com/spigell/boss-responder/internal/interaction"
	"github.com/spigell/boss-responder/internal/logger"
	"github.com/spigell/boss-responder/internal/metrics"
	"github.com/spigell/boss-responder/internal/motion"
	"github.com/spigell/boss-responder/internal/secrets"
	"github.com/spigell/boss-responder/internal/triage"
	"github.com/spigell/boss-responder/internal/utils"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Attach to the browser and process candidate chats until stopped",
	Run: func(_ *cobra.Command, _ []string) {
		run()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("endpoint", "e", "", "remote debugging endpoint of the running browser (overrides browser.endpoint)")
	runCmd.Flags().String("metrics-addr", "", "listen address for Prometheus metrics, e.g. :9108 (overrides metrics.addr)")

	viper.BindPFlag("browser.endpoint", runCmd.Flags().Lookup("endpoint"))
	viper.BindPFlag("metrics.addr", runCmd.Flags().Lookup("metrics-addr"))
}

// run is the main command for the cli.
func run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := getConfig()
	if err != nil {
		log.Fatalf("getting a config: %s", err)
	}

	logger, err := logger.New(logger.Options{
		JSON:       viper.GetBool("json"),
		Debug:      viper.GetBool("debug"),
		File:       config.Log.File,
		MaxSizeMB:  config.Log.MaxSizeMB,
		MaxBackups: config.Log.MaxBackups,
		MaxAgeDays: config.Log.MaxAgeDays,
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	logger.Info("starting the boss-responder", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg)

	if addr := strings.TrimSpace(config.Metrics.Addr); addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr, reg, logger); err != nil {
				logger.Error("metrics endpoint stopped", zap.Error(err))
			}
		}()
	}

	page, err := browser.Attach(ctx, browser.Options{
		Endpoint:      config.Browser.Endpoint,
		AttachTimeout: config.Browser.AttachTimeout,
		ViewportRatio: config.Browser.ViewportRatio,
	}, logger.Named("browser"))
	if err != nil {
		logger.Fatal("attaching to the browser",
			zap.Error(err),
			zap.String("hint", "start the browser with --remote-debugging-port and set browser.endpoint"),
		)
	}
	defer page.Close()

	if err := page.Navigate(ctx, config.Chat.URL); err != nil {
		logger.Fatal("opening the chat page", zap.String("url", config.Chat.URL), zap.Error(err))
	}

	loop, err := newLoop(ctx, config, page, rec, logger)
	if err != nil {
		logger.Fatal("preparing the chat loop", zap.Error(err))
	}

	err = loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("exiting", zap.String("reason", "interrupted"))
		return
	}
	logger.Fatal("chat loop stopped", zap.Error(err))
}

func newLoop(ctx context.Context, config *Config, page *browser.Page, rec *metrics.Recorder, logger *zap.Logger) (*triage.Loop, error) {
	clock := utils.RealClock{}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	x, y := page.Viewport().Center()
	cursor := motion.NewCursor(motion.Point{X: x, Y: y})
	sim := motion.NewSimulator(page, cursor, clock, rng, config.motionConfig(), logger.Named("motion"),
		motion.WithObserver(rec.ObserveMotion))

	ctrl := interaction.New(page, sim, clock, config.interactionConfig(), logger.Named("interaction"))

	ev := candidate.NewEvaluator(page,
		candidate.NewTokenExtractor(config.Tokens, config.Chat.Greeting),
		newSkillMatcher(ctx, config, logger),
		config.Selectors.Candidate,
		rec,
		logger.Named("candidate"),
	)

	return triage.New(config.loopConfig(), triage.Deps{
		Actor:     ctrl,
		Inspector: ev,
		Judge:     filtering.NewEngine(config.Rules, logger.Named("filtering")),
		Rules:     config.Rules,
		Clock:     clock,
		Rand:      rng,
		Metrics:   rec,
		Logger:    logger.Named("triage"),
	})
}

// newSkillMatcher returns the keyword matcher, fronted by Gemini when AI is enabled and usable.
func newSkillMatcher(ctx context.Context, config *Config, log *zap.Logger) candidate.SkillMatcher {
	keywords := candidate.NewKeywordMatcher(config.Skills.Keywords)
	if config.AI == nil || !config.AI.Enabled {
		return keywords
	}

	matcher, err := newAIMatcher(ctx, config, log)
	if err != nil {
		log.Warn("skipping AI skill assessment", zap.Error(err))
		return keywords
	}
	return candidate.NewFallbackMatcher(matcher, keywords, log.Named("skills"))
}

func newAIMatcher(ctx context.Context, config *Config, log *zap.Logger) (*gemini.Matcher, error) {
	cfg := config.AI
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if cfg.Gemini == nil {
		return nil, errors.New("ai.gemini section is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	aiLogger := logger.WithFields(log, logger.AIFields("gemini", cfg.Gemini.Model)...)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, aiLogger)
	if err != nil {
		return nil, err
	}

	minConfidence := cfg.MinConfidence
	if minConfidence < 0 {
		minConfidence = 0
	}

	return gemini.NewMatcher(generator, config.Skills.Keywords, minConfidence, cfg.Gemini.MaxLogLength, aiLogger), nil
}
