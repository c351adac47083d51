// Package rbac decides whether a caller may perform an action on a resource.
//
// Grants live in an embedded casbin model and policy: reads are public,
// authors manage their own reviews and comments, moderators manage anyone's,
// and admins additionally own the catalogue and user accounts. Roles inherit
// downwards (admin > moderator > user > anonymous).
package rbac

import (
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"yamdb/internal/apperr"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

var decisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "yamdb_authz_decisions_total",
		Help: "Authorization decisions by role, resource, action and outcome",
	},
	[]string{"role", "resource", "action", "decision"},
)

// Policy evaluates grants. It is safe for concurrent use.
type Policy struct {
	enforcer *casbin.SyncedEnforcer
	logger   *slog.Logger
}

// NewPolicy builds the policy from the embedded model and grants.
func NewPolicy(logger *slog.Logger) (*Policy, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("load rbac model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create rbac enforcer: %w", err)
	}
	if err := loadPolicy(enforcer, embeddedPolicy); err != nil {
		return nil, err
	}
	return &Policy{enforcer: enforcer, logger: logger}, nil
}

// MustNewPolicy is NewPolicy for callers that cannot recover from a broken
// embedded policy (tests, main).
func MustNewPolicy(logger *slog.Logger) *Policy {
	p, err := NewPolicy(logger)
	if err != nil {
		panic(err)
	}
	return p
}

func loadPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		rule := make([]interface{}, 0, len(parts)-1)
		for _, part := range parts[1:] {
			rule = append(rule, strings.TrimSpace(part))
		}
		var err error
		switch strings.TrimSpace(parts[0]) {
		case "p":
			_, err = enforcer.AddPolicy(rule...)
		case "g":
			_, err = enforcer.AddGroupingPolicy(rule...)
		default:
			err = fmt.Errorf("unknown policy type in %q", line)
		}
		if err != nil {
			return fmt.Errorf("load rbac policy %q: %w", line, err)
		}
	}
	return nil
}

// CanPerform is the single decision function: may a caller holding role
// perform act on res given its ownership of the object?
func (p *Policy) CanPerform(role Role, act Action, res Resource, own Ownership) bool {
	allowed, err := p.enforcer.Enforce(string(role), string(res), string(act), string(own))
	if err != nil {
		p.logger.Error("rbac_enforce_failed",
			"role", role, "resource", res, "action", act, "error", err)
		allowed = false
	}
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	decisionsTotal.WithLabelValues(string(role), string(res), string(act), decision).Inc()
	return allowed
}

// Authorize applies CanPerform to an identity and converts a denial into the
// client error: 401 for anonymous callers, 403 for everyone else.
func (p *Policy) Authorize(id Identity, act Action, res Resource, own Ownership) error {
	if p.CanPerform(id.Subject(), act, res, own) {
		return nil
	}
	if !id.IsAuthenticated() {
		return apperr.Unauthenticated("authentication credentials were not provided")
	}
	return apperr.Forbidden("you do not have permission to perform this action")
}
