package discord

import "fmt"

// Config holds the Discord provider configuration.
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
		c.ChunkLimit = 2000
	}
	if c.ReplyToMode == "" {
		c.ReplyToMode = "all"
	}
}

func (c *Config) validate() error {
	if c.Token == "" {
		return fmt.Errorf("discord: token is required")
	}
	switch c.ReplyToMode {
	case "off", "first", "all":
	default:
		return fmt.Errorf("discord: invalid reply_to_mode %q (must be \"off\", \"first\" or \"all\")", c.ReplyToMode)
	}
	if c.ChunkLimit < 1 || c.ChunkLimit > 2000 {
		return fmt.Errorf("discord: chunk_limit must be 1-2000, got %d", c.ChunkLimit)
	}
	return nil
}
