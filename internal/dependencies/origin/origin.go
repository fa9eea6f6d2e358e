package origin

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// Unknown is returned when the client address cannot be determined
const Unknown = "unknown"

// Resolver looks up the network origin of the current client.
// Resolution is best-effort and never fails.
type Resolver interface {
	Resolve(ctx context.Context) string
}

type contextKey struct{}

// WithAddress returns a context carrying the client address
func WithAddress(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, contextKey{}, addr)
}

// ContextResolver reads the address stored by WithAddress
type ContextResolver struct{}

// New creates a new ContextResolver
func New() *ContextResolver {
	return &ContextResolver{}
}

// Resolve returns the address from the context, or Unknown
func (r *ContextResolver) Resolve(ctx context.Context) string {
	addr, _ := ctx.Value(contextKey{}).(string)
	if addr == "" {
		return Unknown
	}
	return addr
}

// FromRequest extracts the client address, preferring the first
// X-Forwarded-For hop over the socket peer
func FromRequest(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
