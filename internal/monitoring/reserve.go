package monitoring

import (
	"context" // Context for chain reads

	"kcode_backend/internal/chain"  // On-chain balance reads
	"kcode_backend/internal/config" // Reserve addresses

	"github.com/sirupsen/logrus" // Logging library
)

// Health statuses for a reserve
const (
	StatusHealthy  = "healthy"  // >= 50% remaining
	StatusInfo     = "info"     // >= 25% remaining
	StatusWarning  = "warning"  // >= 10% remaining
	StatusCritical = "critical" // < 10% remaining
)

// Initial token allocations per reserve, in whole KCODE
const (
	initialCommunity = 450_000_000 // Community reserve (user rewards)
	initialTeam      = 200_000_000 // Team allocation
	initialLiquidity = 250_000_000 // Liquidity pools
	initialTreasury  = 100_000_000 // Treasury
)

// Assumed elapsed period for the linear depletion projection
const projectionDaysElapsed = 30

// Reserve is one monitored token pool
type Reserve struct {
	Name      string  // Display name
	Address   string  // On-chain address
	Initial   float64 // Initial allocation in KCODE
	Projected bool    // Whether days-remaining is estimated for this reserve
}

// ReserveStatus is the computed health of one reserve
type ReserveStatus struct {
	Name             string   `json:"name"`                     // Display name
	Address          string   `json:"address"`                  // On-chain address
	Initial          float64  `json:"initial"`                  // Initial allocation
	Current          float64  `json:"current"`                  // Current on-chain balance
	PercentRemaining float64  `json:"percent_remaining"`        // current/initial * 100
	Status           string   `json:"status"`                   // healthy / info / warning / critical
	DaysRemaining    *float64 `json:"days_remaining,omitempty"` // Linear projection, community reserve only
}

// Monitor reads reserve balances and classifies their health
type Monitor struct {
	issuer   chain.Issuer // Balance reads
	reserves []Reserve    // Monitored pools
}

// NewMonitor builds the fixed reserve list from configuration
func NewMonitor(issuer chain.Issuer, cfg *config.Config) *Monitor {
	return &Monitor{
		issuer: issuer,
		reserves: []Reserve{
			{Name: "community", Address: cfg.CommunityReserve, Initial: initialCommunity, Projected: true},
			{Name: "team", Address: cfg.TeamReserve, Initial: initialTeam},
			{Name: "liquidity", Address: cfg.LiquidityReserve, Initial: initialLiquidity},
			{Name: "treasury", Address: cfg.TreasuryReserve, Initial: initialTreasury},
		},
	}
}

// Check reads every reserve and returns its computed status. A failed
// balance read logs and reports that reserve as critical with a zero
// balance rather than failing the whole check.
func (m *Monitor) Check(ctx context.Context) []ReserveStatus {
	out := make([]ReserveStatus, 0, len(m.reserves))
	for _, r := range m.reserves {
		current, err := m.issuer.BalanceOf(ctx, r.Address) // Current on-chain balance
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"reserve": r.Name,      // Which pool
				"address": r.Address,   // Its address
				"error":   err.Error(), // Read failure
			}).Error("Reserve balance read failed")
			current = 0 // Report as empty rather than aborting
		}
		pct := percentRemaining(current, r.Initial) // Share of the allocation left
		status := ReserveStatus{
			Name:             r.Name,
			Address:          r.Address,
			Initial:          r.Initial,
			Current:          current,
			PercentRemaining: pct,
			Status:           Classify(pct),
		}
		if r.Projected {
			if days, ok := DaysRemaining(current, r.Initial); ok {
				status.DaysRemaining = &days // Attach the projection
			}
		}
		out = append(out, status)
	}
	return out
}

// percentRemaining returns current/initial as a percentage
func percentRemaining(current, initial float64) float64 {
	if initial <= 0 {
		return 0 // Guard against a misconfigured allocation
	}
	return current / initial * 100
}

// Classify maps a percent-remaining value onto a health status.
// Thresholds are exclusive: exactly 50 is healthy, exactly 25 is info,
// exactly 10 is warning.
func Classify(pct float64) string {
	switch {
	case pct < 10:
		return StatusCritical
	case pct < 25:
		return StatusWarning
	case pct < 50:
		return StatusInfo
	default:
		return StatusHealthy
	}
}

// DaysRemaining estimates how long the reserve lasts assuming the amount
// spent so far was spent linearly over the last projectionDaysElapsed days.
func DaysRemaining(current, initial float64) (float64, bool) {
	spent := initial - current // Total depleted so far
	if spent <= 0 {
		return 0, false // Nothing spent yet; no meaningful projection
	}
	perDay := spent / projectionDaysElapsed // Naive linear burn rate
	return current / perDay, true
}
