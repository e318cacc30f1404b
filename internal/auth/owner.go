package auth

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/prn-tf/gallery/internal/domain"
	"github.com/prn-tf/gallery/internal/metrics"
	"github.com/prn-tf/gallery/internal/repository"
)

// Decision is the outcome of an ownership check.
// The zero value is Denied.
type Decision int

const (
	// Denied forbids the mutation.
	Denied Decision = iota
	// Permitted allows the mutation.
	Permitted
)

// String returns the decision name.
func (d Decision) String() string {
	if d == Permitted {
		return "permitted"
	}
	return "denied"
}

// OwnershipAuthorizer decides whether an identity may mutate a resource
// recorded as owned by a given user id. It fails closed.
type OwnershipAuthorizer struct {
	resolver repository.OwnerResolver
	logger   zerolog.Logger
}

// NewOwnershipAuthorizer creates an authorizer that resolves usernames to
// owner ids with resolver.
func NewOwnershipAuthorizer(resolver repository.OwnerResolver, logger zerolog.Logger) *OwnershipAuthorizer {
	return &OwnershipAuthorizer{
		resolver: resolver,
		logger:   logger.With().Str("component", "ownership_authorizer").Logger(),
	}
}

// Authorize returns Permitted iff identity resolves to ownerID.
// A nil identity, an empty owner, or a failed lookup all yield Denied.
func (a *OwnershipAuthorizer) Authorize(ctx context.Context, identity *Identity, ownerID domain.UserID) Decision {
	decision := a.decide(ctx, identity, ownerID)
	metrics.AuthorizationDecisionsTotal.WithLabelValues(decision.String()).Inc()
	return decision
}

func (a *OwnershipAuthorizer) decide(ctx context.Context, identity *Identity, ownerID domain.UserID) Decision {
	if identity == nil || identity.Username == "" || ownerID == "" {
		return Denied
	}

	resolved, err := a.resolver.FindOwnerIDByUsername(ctx, identity.Username)
	if err != nil {
		a.logger.Debug().Err(err).Str("username", identity.Username).Msg("owner lookup failed, denying")
		return Denied
	}
	if resolved == "" || resolved != ownerID {
		return Denied
	}

	return Permitted
}
