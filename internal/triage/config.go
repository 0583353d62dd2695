package triage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/boss-responder/internal/candidate"
)

// Timing holds the fixed pauses of an iteration.
type Timing struct {
	Settle        time.Duration `mapstructure:"settle"`
	TabGap        time.Duration `mapstructure:"tab-gap"`
	SelectSettle  time.Duration `mapstructure:"select-settle"`
	ResumeSettle  time.Duration `mapstructure:"resume-settle"`
	GreetSettle   time.Duration `mapstructure:"greet-settle"`
	ExchangeGap   time.Duration `mapstructure:"exchange-gap"`
	ReplyDelayMin time.Duration `mapstructure:"reply-delay-min"`
	ReplyDelayMax time.Duration `mapstructure:"reply-delay-max"`
	Backoff       time.Duration `mapstructure:"backoff"`
}

func DefaultTiming() Timing {
	return Timing{
		Settle:        2 * time.Second,
		TabGap:        500 * time.Millisecond,
		SelectSettle:  400 * time.Millisecond,
		ResumeSettle:  time.Second,
		GreetSettle:   time.Second,
		ExchangeGap:   500 * time.Millisecond,
		ReplyDelayMin: time.Second,
		ReplyDelayMax: 3 * time.Second,
		Backoff:       10 * time.Second,
	}
}

// Selectors are the controls the loop clicks.
type Selectors struct {
	FirstTab        string `mapstructure:"first-tab"`
	SecondTab       string `mapstructure:"second-tab"`
	UnreadFilter    string `mapstructure:"unread-filter"`
	ResumeOpen      string `mapstructure:"resume-open"`
	ResumeClose     string `mapstructure:"resume-close"`
	ExchangeOpen    string `mapstructure:"exchange-open"`
	ExchangeConfirm string `mapstructure:"exchange-confirm"`
}

func DefaultSelectors() Selectors {
	return Selectors{
		FirstTab:        ".chat-filter-container .chat-label-item:nth-child(1)",
		SecondTab:       ".chat-filter-container .chat-label-item:nth-child(2)",
		UnreadFilter:    ".chat-message-filter > div > span:nth-child(2)",
		ResumeOpen:      ".resume-btn-content > a",
		ResumeClose:     ".boss-popup__close > i",
		ExchangeOpen:    ".operate-exchange-left span.operate-btn",
		ExchangeConfirm: ".toolbar-box-right .operate-exchange-left .boss-btn-primary",
	}
}

// Config is everything the loop needs besides its collaborators.
type Config struct {
	Timing    Timing
	Selectors Selectors
	List      candidate.Selectors
	Greeting  string
	Replies   []string
}

func DefaultConfig() Config {
	return Config{
		Timing:    DefaultTiming(),
		Selectors: DefaultSelectors(),
		List:      candidate.DefaultSelectors(),
		Greeting:  "你好",
		Replies:   []string{"好的", "好", "OK", "收到", "收到，我看看", "好的，我看看"},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Greeting) == "" {
		return errors.New("greeting must not be empty")
	}
	if len(c.Replies) == 0 {
		return errors.New("at least one reply phrase is required")
	}
	for i, r := range c.Replies {
		if strings.TrimSpace(r) == "" {
			return fmt.Errorf("reply #%d is empty", i+1)
		}
	}
	if c.Timing.ReplyDelayMax < c.Timing.ReplyDelayMin {
		return fmt.Errorf("reply delay range [%s, %s) is inverted", c.Timing.ReplyDelayMin, c.Timing.ReplyDelayMax)
	}
	if c.Timing.Backoff <= 0 {
		return errors.New("backoff must be positive")
	}
	return nil
}
