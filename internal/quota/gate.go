package quota

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Decision is the outcome of an admission check.
type Decision struct {
	Admitted bool
	Usage    int
	Limit    int
}

// Gate admits or rejects requests against the daily limit.
//
// Admit reads the counter and Record writes usage+1 back; the two are not
// atomic, so concurrent requests near the limit can both be admitted and
// overshoot by at most the in-flight concurrency. That tradeoff is
// deliberate (no cross-request locking) and must survive refactors; the
// atomic alternative is noted in store.go.
//
// If the store is unreachable the gate fails open: usage reads as zero and
// the request is admitted. Availability wins over strict enforcement.
type Gate struct {
	store *Store
	log   *logrus.Logger
}

func NewGate(store *Store, log *logrus.Logger) *Gate {
	return &Gate{store: store, log: log}
}

// Admit checks the caller's usage for today against limit. Denial does not
// consume quota.
func (g *Gate) Admit(ctx context.Context, id Identity, limit int) Decision {
	usage, err := g.store.Usage(ctx, id.RateKey, Today())
	if err != nil {
		g.log.WithFields(logrus.Fields{
			"rate_key": id.RateKey,
			"error":    err.Error(),
		}).Warn("quota store unreachable, failing open")
		return Decision{Admitted: true, Usage: 0, Limit: limit}
	}
	return Decision{Admitted: usage < limit, Usage: usage, Limit: limit}
}

// Record writes back the consumption for an admitted request, using the
// usage Admit observed. Called only after the capability check passes, so
// status and unknown-endpoint requests never consume quota. Store errors
// are swallowed: losing a count is acceptable, failing the request is not.
func (g *Gate) Record(ctx context.Context, id Identity, observedUsage int) {
	if err := g.store.SetUsage(ctx, id.RateKey, Today(), observedUsage+1); err != nil {
		g.log.WithFields(logrus.Fields{
			"rate_key": id.RateKey,
			"error":    err.Error(),
		}).Warn("failed to record quota consumption")
	}
}
