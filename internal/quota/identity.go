package quota

import "context"

// Identity distinguishes a caller for the duration of one request. RateKey
// is what the usage counter is keyed on: the client IP for free callers,
// or "key:<credential>" for pro callers so the quota follows the key
// across machines.
type Identity struct {
	Key      string
	Elevated bool
	RateKey  string
}

// Resolver derives a caller identity from the request credentials.
type Resolver struct {
	store *Store
}

func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve builds the identity for a request. apiKey comes from the ?key=
// parameter or the Authorization header; clientIP from the transport
// layer. An apiKey that the store does not recognize is ignored and the
// caller stays on the free tier.
func (r *Resolver) Resolve(ctx context.Context, apiKey, clientIP string) Identity {
	if apiKey != "" && r.store.IsPro(ctx, apiKey) {
		return Identity{Key: apiKey, Elevated: true, RateKey: "key:" + apiKey}
	}
	if clientIP == "" {
		clientIP = "unknown"
	}
	return Identity{Key: apiKey, RateKey: clientIP}
}
