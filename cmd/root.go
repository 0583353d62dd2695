package cmd

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/boss-responder/internal/candidate"
	"github.com/spigell/boss-responder/internal/filtering"
	"github.com/spigell/boss-responder/internal/interaction"
	"github.com/spigell/boss-responder/internal/motion"
	"github.com/spigell/boss-responder/internal/triage"
)

const (
	app = "boss-responder"
)

type Config struct {
	Browser   BrowserConfig    `mapstructure:"browser"`
	Chat      ChatConfig       `mapstructure:"chat"`
	Skills    SkillsConfig     `mapstructure:"skills"`
	Tokens    candidate.Tokens `mapstructure:"tokens"`
	Timing    TimingConfig     `mapstructure:"timing"`
	Selectors SelectorsConfig  `mapstructure:"selectors"`
	AI        *AIConfig        `mapstructure:"ai"`
	Metrics   MetricsConfig    `mapstructure:"metrics"`
	Log       LogConfig        `mapstructure:"log"`

	// Rules are decoded separately to keep their order.
	Rules filtering.Rules `mapstructure:"-"`
}

type BrowserConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	AttachTimeout time.Duration `mapstructure:"attach-timeout"`
	ViewportRatio float64       `mapstructure:"viewport-ratio"`
}

type ChatConfig struct {
	URL      string   `mapstructure:"url"`
	Greeting string   `mapstructure:"greeting"`
	Replies  []string `mapstructure:"replies"`
}

type SkillsConfig struct {
	Keywords []string `mapstructure:"keywords"`
}

type TimingConfig struct {
	triage.Timing `mapstructure:",squash"`

	ElementTimeout time.Duration `mapstructure:"element-timeout"`
	MoveSettle     time.Duration `mapstructure:"move-settle"`
	ClickSettle    time.Duration `mapstructure:"click-settle"`
	TypeSettle     time.Duration `mapstructure:"type-settle"`
	FrameInterval  time.Duration `mapstructure:"frame-interval"`
	MotionMin      time.Duration `mapstructure:"motion-min"`
	MotionMax      time.Duration `mapstructure:"motion-max"`
}

type SelectorsConfig struct {
	Loop      triage.Selectors    `mapstructure:",squash"`
	Candidate candidate.Selectors `mapstructure:",squash"`

	Input  string `mapstructure:"input"`
	Submit string `mapstructure:"submit"`
}

type AIConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Provider      string        `mapstructure:"provider"`
	MinConfidence float64       `mapstructure:"min-confidence"`
	Gemini        *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max-size-mb"`
	MaxBackups int    `mapstructure:"max-backups"`
	MaxAgeDays int    `mapstructure:"max-age-days"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "boss-responder answers candidate chats on a recruiting site through an attached browser",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is boss-responder.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("browser.endpoint", "http://127.0.0.1:9333")
	viper.SetDefault("browser.attach-timeout", 10*time.Second)
	viper.SetDefault("browser.viewport-ratio", 0.8)

	loop := triage.DefaultConfig()
	viper.SetDefault("chat.url", "https://www.zhipin.com/web/chat/index")
	viper.SetDefault("chat.greeting", loop.Greeting)
	viper.SetDefault("chat.replies", loop.Replies)

	viper.SetDefault("skills.keywords", []string{"vue", "node.js", "nodejs"})

	tokens := candidate.DefaultTokens()
	viper.SetDefault("tokens.graduate", tokens.Graduate)
	viper.SetDefault("tokens.new-graduate", tokens.NewGraduate)
	viper.SetDefault("tokens.degree", tokens.Degree)
	viper.SetDefault("tokens.women-icon-class", tokens.WomenIconClass)

	t := loop.Timing
	ui := interaction.DefaultConfig()
	mc := motion.DefaultConfig()
	for key, d := range map[string]time.Duration{
		"settle":          t.Settle,
		"tab-gap":         t.TabGap,
		"select-settle":   t.SelectSettle,
		"resume-settle":   t.ResumeSettle,
		"greet-settle":    t.GreetSettle,
		"exchange-gap":    t.ExchangeGap,
		"reply-delay-min": t.ReplyDelayMin,
		"reply-delay-max": t.ReplyDelayMax,
		"backoff":         t.Backoff,
		"element-timeout": ui.ElementTimeout,
		"move-settle":     ui.MoveSettle,
		"click-settle":    ui.ClickSettle,
		"type-settle":     ui.TypeSettle,
		"frame-interval":  mc.FrameInterval,
		"motion-min":      mc.MinDuration,
		"motion-max":      mc.MaxDuration,
	} {
		viper.SetDefault("timing."+key, d)
	}

	s := loop.Selectors
	c := loop.List
	for key, sel := range map[string]string{
		"first-tab":        s.FirstTab,
		"second-tab":       s.SecondTab,
		"unread-filter":    s.UnreadFilter,
		"resume-open":      s.ResumeOpen,
		"resume-close":     s.ResumeClose,
		"exchange-open":    s.ExchangeOpen,
		"exchange-confirm": s.ExchangeConfirm,
		"list":             c.List,
		"item":             c.Item,
		"badge":            c.Badge,
		"source-job":       c.SourceJob,
		"resume-content":   c.ResumeContent,
		"detail":           c.Detail,
		"position":         c.Position,
		"self-messages":    c.SelfMessages,
		"input":            ui.InputSelector,
		"submit":           ui.SubmitSelector,
	} {
		viper.SetDefault("selectors."+key, sel)
	}

	viper.SetDefault("ai.enabled", false)
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.min-confidence", 0.5)
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.max-retries", 3)
	viper.SetDefault("ai.gemini.max-log-length", 200)

	viper.SetDefault("log.max-size-mb", 50)
	viper.SetDefault("log.max-backups", 3)
	viper.SetDefault("log.max-age-days", 14)
}

func initConfig() {
	// Only run and rules read the config file.
	if runCmd.CalledAs() == "" && rulesCmd.CalledAs() == "" {
		return
	}

	if err := readConfig(cfgFile); err != nil {
		log.Fatal(err)
	}
}

// readConfig loads file, or boss-responder.yaml from the current directory when file is empty.
// Only an explicitly requested file must exist.
func readConfig(file string) error {
	if file != "" {
		viper.SetConfigFile(file)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if file == "" && errors.As(err, &notFound) {
		return nil
	}
	return err
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	rules, err := filtering.DecodeRules(viper.Get("rules"))
	if err != nil {
		return nil, err
	}
	if rules == nil {
		rules = filtering.DefaultRules()
	}
	config.Rules = rules

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func (c *Config) validate() error {
	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	if err := c.loopConfig().Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Chat.URL) == "" {
		return errors.New("chat.url is required")
	}
	if c.Timing.MotionMin <= 0 || c.Timing.MotionMax <= c.Timing.MotionMin {
		return fmt.Errorf("timing: motion range [%s, %s) is empty", c.Timing.MotionMin, c.Timing.MotionMax)
	}
	if len(c.Skills.Keywords) == 0 {
		return errors.New("skills.keywords must not be empty")
	}
	return nil
}

func (c *Config) loopConfig() triage.Config {
	return triage.Config{
		Timing:    c.Timing.Timing,
		Selectors: c.Selectors.Loop,
		List:      c.Selectors.Candidate,
		Greeting:  c.Chat.Greeting,
		Replies:   c.Chat.Replies,
	}
}

func (c *Config) interactionConfig() interaction.Config {
	return interaction.Config{
		ElementTimeout: c.Timing.ElementTimeout,
		MoveSettle:     c.Timing.MoveSettle,
		ClickSettle:    c.Timing.ClickSettle,
		TypeSettle:     c.Timing.TypeSettle,
		InputSelector:  c.Selectors.Input,
		SubmitSelector: c.Selectors.Submit,
	}
}

func (c *Config) motionConfig() motion.Config {
	return motion.Config{
		FrameInterval: c.Timing.FrameInterval,
		MinDuration:   c.Timing.MotionMin,
		MaxDuration:   c.Timing.MotionMax,
		Easing:        motion.DefaultEasing,
	}
}
