package slack

import (
	"fmt"
	"strings"
)

// Config holds the Slack provider configuration.
type Config struct {
	// BotToken is the bot user OAuth token ("xoxb-...").
	BotToken  string   `yaml:"bot_token"`
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
		c.ChunkLimit = 4000
	}
	if c.ReplyToMode == "" {
		c.ReplyToMode = "all"
	}
}

func (c *Config) validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("slack: bot_token is required")
	}
	if !strings.HasPrefix(c.BotToken, "xoxb-") {
		return fmt.Errorf("slack: bot_token must be a bot token (xoxb-...)")
	}
	switch c.ReplyToMode {
	case "off", "first", "all":
	default:
		return fmt.Errorf("slack: invalid reply_to_mode %q (must be \"off\", \"first\" or \"all\")", c.ReplyToMode)
	}
	if c.ChunkLimit < 1 || c.ChunkLimit > 40000 {
		return fmt.Errorf("slack: chunk_limit must be 1-40000, got %d", c.ChunkLimit)
	}
	return nil
}
