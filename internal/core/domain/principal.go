package domain

import "context"

// Principal is the verified identity bound to a single inbound request.
type Principal struct {
	UserID   string
	Username string
	Roles    []Role
	TokenID  string
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal bound to ctx, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Permits reports whether granted satisfies at least one of required.
// An empty requirement means "any authenticated principal".
func Permits(required []Role, granted []Role) bool {
	if len(required) == 0 {
		return true
	}
	for _, need := range required {
		for _, have := range granted {
			if need == have {
				return true
			}
		}
	}
	return false
}
