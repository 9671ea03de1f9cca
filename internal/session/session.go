// Package session keeps server-side session state keyed by an opaque
// session ID. The client only ever holds that ID, wrapped in a signed
// cookie token; the values live in a Store.
package session

import (
	"context"
	"errors"
	"time"
)

// Keys recognized by the pages of the site.
const (
	KeyUserID        = "user_id"
	KeyUserFirstName = "user_firstname"
)

// ErrNotFound is returned by a Store when the session ID is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Values is the key/value content of one session.
type Values map[string]string

// Get returns the value stored under key and whether it is present.
// A nil Values has no keys.
func (v Values) Get(key string) (string, bool) {
	value, ok := v[key]
	return value, ok
}

func (v Values) clone() Values {
	result := make(Values, len(v))
	for key, value := range v {
		result[key] = value
	}
	return result
}

// Store persists session values. Implementations must be safe for
// concurrent use.
type Store interface {
	Load(ctx context.Context, id string) (Values, error)
	Save(ctx context.Context, id string, values Values, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
