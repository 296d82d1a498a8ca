package wazero

import (
	"context"

	"github.com/tetratelabs/wazero/api"
)

type guestNameKey struct{}

// WithGuestName records which guest a call into wazero is made for, so host
// functions it reaches are attributed to that guest.
func WithGuestName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, guestNameKey{}, name)
}

// GuestNameFromContext returns the name recorded by WithGuestName.
func GuestNameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(guestNameKey{}).(string)
	return name, ok
}

// callerOf names the guest behind a host function call. Guests instantiated
// outside a session are known by their module name only.
func callerOf(ctx context.Context, mod api.Module) string {
	if name, ok := GuestNameFromContext(ctx); ok {
		return name
	}
	return mod.Name()
}
