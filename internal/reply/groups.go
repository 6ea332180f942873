package reply

import "github.com/courierhq/courier/internal/provider"

// RequireMention reports whether the provider demands an explicit mention
// before the bot replies in a group conversation. Providers without a group
// policy require mentions.
func RequireMention(plugin provider.Plugin, accountID string) bool {
	if plugin == nil {
		return true
	}
	gp, ok := plugin.(provider.GroupPolicy)
	if !ok {
		return true
	}
	if accountID == "" {
		accountID = plugin.Accounts().DefaultAccountID()
	}
	return gp.RequireMention(accountID)
}
