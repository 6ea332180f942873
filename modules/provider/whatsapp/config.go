package whatsapp

import "fmt"

// Config holds the WhatsApp provider configuration.
type Config struct {
	// StoreDSN is the whatsmeow session database. SQLite paths should
	// enable foreign keys, e.g. "file:whatsmeow.db?_foreign_keys=on".
	StoreDSN string `yaml:"store_dsn"`

	AccountID string   `yaml:"account_id"`
	AllowFrom []string `yaml:"allow_from"`

	ChunkLimit       int    `yaml:"chunk_limit"`
	ReplyToMode      string `yaml:"reply_to_mode"`
	AllowTagsWhenOff bool   `yaml:"allow_tags_when_off"`

	// RequireMention controls whether group messages need an explicit
	// mention before the bot replies. Defaults to true.
	RequireMention *bool `yaml:"require_mention"`
}

func (c *Config) defaults() {
	if c.StoreDSN == "" {
		c.StoreDSN = "file:whatsmeow.db?_foreign_keys=on"
	}
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
	switch c.ReplyToMode {
	case "off", "first", "all":
	default:
		return fmt.Errorf("whatsapp: invalid reply_to_mode %q (must be \"off\", \"first\" or \"all\")", c.ReplyToMode)
	}
	if c.ChunkLimit < 1 || c.ChunkLimit > 65536 {
		return fmt.Errorf("whatsapp: chunk_limit must be 1-65536, got %d", c.ChunkLimit)
	}
	for _, entry := range c.AllowFrom {
		if entry == "*" {
			continue
		}
		if NormalizeTarget(entry) == "" {
			return fmt.Errorf("whatsapp: allow_from entry %q is not a phone number or JID", entry)
		}
	}
	return nil
}
