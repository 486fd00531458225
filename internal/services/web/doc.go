// Package web serves the Itemdesk browser application.
//
// Each browser gets a web client identified by a cookie. The client holds the
// identity provider credentials and a query cache; page guards, the auth flow
// and the item pages all read through it.
package web
