package telegram

import (
	"fmt"
	"regexp"
)

// tokenPattern matches the Telegram bot token format: <digits>:<alphanum+dash>.
var tokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)

// Config holds the Telegram provider configuration.
type Config struct {
	Token     string   `yaml:"token"`
	AccountID string   `yaml:"account_id"`
	AllowFrom []string `yaml:"allow_from"`

	ChunkLimit       int    `yaml:"chunk_limit"`
	ReplyToMode      string `yaml:"reply_to_mode"`
	AllowTagsWhenOff bool   `yaml:"allow_tags_when_off"`
	RequireMention   *bool  `yaml:"require_mention"`
}

func (c *Config) defaults() {
	if c.AccountID == "" {
		c.AccountID = "default"
	}
	if c.ChunkLimit == 0 {
		c.ChunkLimit = 4096
	}
	if c.ReplyToMode == "" {
		c.ReplyToMode = "all"
	}
}

func (c *Config) validate() error {
	if c.Token == "" {
		return fmt.Errorf("telegram: token is required")
	}
	if !tokenPattern.MatchString(c.Token) {
		return fmt.Errorf("telegram: token format invalid (expected <bot_id>:<hash>)")
	}
	switch c.ReplyToMode {
	case "off", "first", "all":
	default:
		return fmt.Errorf("telegram: invalid reply_to_mode %q (must be \"off\", \"first\" or \"all\")", c.ReplyToMode)
	}
	if c.ChunkLimit < 1 || c.ChunkLimit > 4096 {
		return fmt.Errorf("telegram: chunk_limit must be 1-4096, got %d", c.ChunkLimit)
	}
	return nil
}
