// Package session provides shared session cookie constants used by both
// the handler and middleware packages.
package session

const (
	// CookieName is the name of the cookie that stores the session token.
	CookieName = "namehive_session"

	// CookiePath ensures the cookie is sent with all requests.
	CookiePath = "/"

	// CookieMaxAge sets the cookie expiration (7 days = 604800 seconds).
	// This should match SessionDuration in the user service.
	CookieMaxAge = 7 * 24 * 60 * 60

	// VisitorCookieName stores the anonymous visitor pseudo-ID used for
	// daily quota tracking before signup.
	VisitorCookieName = "namehive_visitor"

	// VisitorCookieMaxAge keeps the pseudo-ID stable for a year. Clearing
	// the cookie mints a fresh identity and a fresh quota.
	VisitorCookieMaxAge = 365 * 24 * 60 * 60
)
