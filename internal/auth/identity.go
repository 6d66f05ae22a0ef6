// Package auth verifies bearer credentials and decides, per route, which
// actor a request runs as and how it behaves when the store is down.
package auth

import (
	"context"
	"errors"
	"strings"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is what a verified credential tells us about the caller.
type Identity struct {
	Subject       string
	Email         string
	DisplayName   string
	PictureURL    string
	EmailVerified bool
	Provider      string
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
