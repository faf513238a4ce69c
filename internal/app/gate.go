package app

import (
	"fmt"

	"quiz-play-service/internal/domain"
)

// DefaultRestrictedCeiling is the number of answers a restricted session may give.
const DefaultRestrictedCeiling = 6

// AccessGate centralises admission and restricted-mode policy for a session.
type AccessGate struct {
	mode    domain.SessionMode
	tier    domain.ViewerTier
	newest  bool
	ceiling int
	upsold  bool
}

func NewAccessGate(mode domain.SessionMode, tier domain.ViewerTier, newest bool, ceiling int) *AccessGate {
	if ceiling <= 0 {
		ceiling = DefaultRestrictedCeiling
	}
	return &AccessGate{mode: mode, tier: tier, newest: newest, ceiling: ceiling}
}

// Admit is checked once when the session is built. Unknown modes and tiers
// are refused. Full play of an older quiz requires a premium viewer.
func (g *AccessGate) Admit() error {
	if !g.mode.Valid() {
		return fmt.Errorf("%w: unknown session mode %q", domain.ErrAccessDenied, g.mode)
	}
	if !g.tier.Valid() {
		return fmt.Errorf("%w: unknown viewer tier %q", domain.ErrAccessDenied, g.tier)
	}
	if g.mode == domain.ModeFull && g.tier != domain.TierPremium && !g.newest {
		return fmt.Errorf("%w: full play of past quizzes requires premium", domain.ErrAccessDenied)
	}
	return nil
}

func (g *AccessGate) Restricted() bool {
	return g.mode == domain.ModeRestricted
}

func (g *AccessGate) Ceiling() int {
	return g.ceiling
}

// Observe reports true exactly once: the first time answered reaches the
// ceiling in restricted mode.
func (g *AccessGate) Observe(answered int) bool {
	if !g.Restricted() || g.upsold || answered < g.ceiling {
		return false
	}
	g.upsold = true
	return true
}

// Locked reports whether the restricted ceiling has been reached.
func (g *AccessGate) Locked() bool {
	return g.upsold
}

// AllowNavigate permits any move until the gate locks; afterwards only
// questions that were already shown remain reachable.
func (g *AccessGate) AllowNavigate(alreadyVisible bool) bool {
	if !g.Locked() {
		return true
	}
	return alreadyVisible
}
