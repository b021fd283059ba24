package model

import "strings"

// OverrideSettings gates the manual-override payment path. The settings row
// is re-fetched on every validation call so a disable takes effect
// immediately; never cache it across requests.
type OverrideSettings struct {
	Enabled            bool
	OverrideToken      string
	AllowedAdminEmails []string
}

// Authorizes reports whether the supplied token and admin email pass all
// three checks: feature enabled, exact token match, email present
// case-insensitively in the allow-list.
func (s OverrideSettings) Authorizes(token, adminEmail string) bool {
	if !s.Enabled {
		return false
	}
	if token == "" || token != s.OverrideToken {
		return false
	}
	for _, allowed := range s.AllowedAdminEmails {
		if strings.EqualFold(allowed, adminEmail) {
			return true
		}
	}
	return false
}
