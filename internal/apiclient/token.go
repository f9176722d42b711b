package apiclient

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrMalformedToken = errors.New("malformed auth token")
)

// Claims are the parts of the bearer token the client cares about. The
// signature is verified by the server, never here.
type Claims struct {
	UserID    string
	ExpiresAt time.Time
}

// Expired reports whether the token carried an exp claim that has passed.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// ParseClaims reads the user id and expiry from a JWT without verifying it.
func ParseClaims(token string) (Claims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Claims{}, ErrMalformedToken
	}

	var out Claims
	for _, key := range []string{"user_id", "userId", "sub"} {
		raw, ok := claims[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case string:
			out.UserID = v
		case float64:
			out.UserID = strconv.FormatInt(int64(v), 10)
		}
		if out.UserID != "" {
			break
		}
	}
	if exp, ok := claims["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return out, nil
}
