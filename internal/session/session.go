// Package session turns the opaque Dialogflow session path into the numeric
// order key every cart operation is scoped by.
//
// A session looks like "projects/<p>/agent/sessions/<token>" or
// "projects/<p>/agent/sessions/<token>/contexts/<c>".  The token is hashed
// with xxhash64, which is stable across processes and builds, and reduced
// into [1, MaxKey].  The range keeps keys inside a signed MySQL INT and
// exact after the float64 round trip the NLU agent applies when a user reads
// the order id back to track it.  Distinct tokens collide with probability
// about n²/(2·MaxKey) for n live sessions.
package session

import (
	"regexp"

	"github.com/cespare/xxhash/v2"
)

const (
	// MaxKey is the largest key Resolve produces.
	MaxKey = 999_999_999
	// FallbackKey is returned for session strings without a token.
	FallbackKey int64 = 999
)

var tokenPattern = regexp.MustCompile(`sessions/([^/]+)`)

// Token extracts the segment following "sessions/".  ok is false when the
// string has no such segment or it is empty.
func Token(session string) (string, bool) {
	m := tokenPattern.FindStringSubmatch(session)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Key maps a session token to an order key in [1, MaxKey].
func Key(token string) int64 {
	return int64(xxhash.Sum64String(token)%MaxKey) + 1
}

// Resolve returns the order key for a session string.  When the string does
// not match the expected shape it returns FallbackKey and ok=false; callers
// log the miss and carry on.
func Resolve(session string) (key int64, ok bool) {
	token, ok := Token(session)
	if !ok {
		return FallbackKey, false
	}
	return Key(token), true
}
