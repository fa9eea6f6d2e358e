package mocks

import (
	"context"

	"github.com/mcoot/xrkiosk/internal/dependencies/origin"
)

// StaticOrigin is a mock Resolver that always returns the same address
type StaticOrigin struct {
	Address string
}

// Ensure StaticOrigin implements Resolver
var _ origin.Resolver = (*StaticOrigin)(nil)

// NewStaticOrigin creates a StaticOrigin returning addr
func NewStaticOrigin(addr string) *StaticOrigin {
	return &StaticOrigin{Address: addr}
}

// Resolve returns the configured address
func (o *StaticOrigin) Resolve(ctx context.Context) string {
	return o.Address
}
