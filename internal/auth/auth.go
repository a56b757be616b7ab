package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/slok/todochat/internal/conventions"
)

// ErrUnauthenticated is returned when a request doesn't carry a valid owner identity.
var ErrUnauthenticated = errors.New("unauthenticated")

// Authenticator knows how to get the owner identity of a request.
type Authenticator interface {
	Authenticate(r *http.Request) (ownerID string, err error)
}

// AuthenticatorFunc is a helper to use functions as Authenticator.
type AuthenticatorFunc func(r *http.Request) (string, error)

func (a AuthenticatorFunc) Authenticate(r *http.Request) (string, error) { return a(r) }

var ownerIDRe = regexp.MustCompile(`^[a-zA-Z0-9._@:-]{1,128}$`)

// HeaderAuthenticator reads the owner identity from a trusted header set by an
// upstream gateway. Token verification belongs to that gateway.
type HeaderAuthenticator struct {
	header string
}

// NewHeaderAuthenticator returns a new header authenticator, if the header is
// empty the default owner header is used.
func NewHeaderAuthenticator(header string) *HeaderAuthenticator {
	if header == "" {
		header = conventions.OwnerHeader
	}
	return &HeaderAuthenticator{header: header}
}

func (h *HeaderAuthenticator) Authenticate(r *http.Request) (string, error) {
	owner := strings.TrimSpace(r.Header.Get(h.header))
	if owner == "" {
		return "", fmt.Errorf("missing %s header: %w", h.header, ErrUnauthenticated)
	}
	if !ownerIDRe.MatchString(owner) {
		return "", fmt.Errorf("invalid owner identity: %w", ErrUnauthenticated)
	}
	return owner, nil
}

type ownerKey struct{}

// ContextWithOwner returns a new context with the authenticated owner.
func ContextWithOwner(parent context.Context, ownerID string) context.Context {
	return context.WithValue(parent, ownerKey{}, ownerID)
}

// OwnerFromContext returns the authenticated owner of the context, if any.
func OwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerKey{}).(string)
	return owner, ok && owner != ""
}
