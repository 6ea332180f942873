package signal

import (
	"fmt"
	"net/url"
)

// Config holds the Signal provider configuration. Sends go through a
// signal-cli daemon's JSON-RPC endpoint.
type Config struct {
	// RPCURL is the signal-cli JSON-RPC endpoint.
	RPCURL string `yaml:"rpc_url"`

	// Account is the linked account's number in international form.
	Account   string   `yaml:"account"`
	AccountID string   `yaml:"account_id"`
	AllowFrom []string `yaml:"allow_from"`

	ReplyToMode      string `yaml:"reply_to_mode"`
	AllowTagsWhenOff bool   `yaml:"allow_tags_when_off"`
	RequireMention   *bool  `yaml:"require_mention"`
}

func (c *Config) defaults() {
	if c.RPCURL == "" {
		c.RPCURL = "http://127.0.0.1:8080/api/v1/rpc"
	}
	if c.AccountID == "" {
		c.AccountID = "default"
	}
	if c.ReplyToMode == "" {
		c.ReplyToMode = "all"
	}
}

func (c *Config) validate() error {
	u, err := url.Parse(c.RPCURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("signal: rpc_url must be a valid http/https URL, got %q", c.RPCURL)
	}
	if c.Account == "" {
		return fmt.Errorf("signal: account is required")
	}
	if NormalizeTarget(c.Account) == "" {
		return fmt.Errorf("signal: account %q is not a phone number in international form", c.Account)
	}
	switch c.ReplyToMode {
	case "off", "first", "all":
	default:
		return fmt.Errorf("signal: invalid reply_to_mode %q (must be \"off\", \"first\" or \"all\")", c.ReplyToMode)
	}
	return nil
}
