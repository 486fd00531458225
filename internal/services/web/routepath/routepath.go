// Package routepath stores canonical HTTP paths for web modules.
package routepath

import (
	"net/url"
	"strings"
)

const (
	Root            = "/"
	Home            = Root
	Login           = "/login"
	Logout          = "/logout"
	Signup          = "/signup"
	RecoverPassword = "/recover-password"
	ResetPassword   = "/reset-password"
	Health          = "/up"

	ItemsPrefix        = "/items/"
	ItemsNew           = ItemsPrefix + "new"
	ItemEditPattern    = ItemsPrefix + "{itemID}/edit"
	ItemDeletePattern  = ItemsPrefix + "{itemID}/delete"
	ResetCodeQueryKey  = "code"
	ResetUserQueryKey  = "username"
	ItemIDPathValueKey = "itemID"
)

// AuthOnly lists the pages that only make sense without a session.
func AuthOnly() []string {
	return []string{Login, Signup, RecoverPassword, ResetPassword}
}

// ItemEdit returns the edit route for one item.
func ItemEdit(itemID string) string {
	return ItemsPrefix + escapeSegment(itemID) + "/edit"
}

// ItemDelete returns the delete route for one item.
func ItemDelete(itemID string) string {
	return ItemsPrefix + escapeSegment(itemID) + "/delete"
}

// ResetPasswordLink returns the reset page carrying the emailed code.
func ResetPasswordLink(username, code string) string {
	query := url.Values{}
	query.Set(ResetCodeQueryKey, strings.TrimSpace(code))
	query.Set(ResetUserQueryKey, strings.TrimSpace(username))
	return ResetPassword + "?" + query.Encode()
}

func escapeSegment(raw string) string {
	return url.PathEscape(strings.TrimSpace(raw))
}
