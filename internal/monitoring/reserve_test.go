package monitoring

import (
	"context"
	"errors"
	"testing"

	"kcode_backend/internal/config"

	"github.com/stretchr/testify/require"
)

type stubIssuer struct {
	balances map[string]float64
	fail     map[string]bool
}

func (s *stubIssuer) RewardUserWithKcode(_ context.Context, to string, amount float64, memo string) (string, error) {
	return "", errors.New("not implemented")
}

func (s *stubIssuer) BurnAndTransferKcode(_ context.Context, to string, amount float64) (string, error) {
	return "", errors.New("not implemented")
}

func (s *stubIssuer) BalanceOf(_ context.Context, address string) (float64, error) {
	if s.fail[address] {
		return 0, errors.New("rpc down")
	}
	return s.balances[address], nil
}

func TestClassify(t *testing.T) {
	cases := []struct {
		pct  float64
		want string
	}{
		{60, StatusHealthy},
		{50, StatusHealthy}, // Boundary: 50 is not < 50
		{49.99, StatusInfo},
		{30, StatusInfo},
		{25, StatusInfo}, // Boundary: 25 is not < 25
		{24.99, StatusWarning},
		{10, StatusWarning}, // Boundary: 10 is not < 10
		{9.99, StatusCritical},
		{0, StatusCritical},
	}
	for _, c := range cases {
		require.Equal(t, c.want, Classify(c.pct), "pct=%v", c.pct)
	}
}

func TestDaysRemaining(t *testing.T) {
	// 150M spent over the assumed 30 days is 5M/day; 300M left lasts 60 days
	days, ok := DaysRemaining(300_000_000, 450_000_000)
	require.True(t, ok)
	require.InDelta(t, 60, days, 0.001)

	// Nothing spent yet: no meaningful projection
	_, ok = DaysRemaining(450_000_000, 450_000_000)
	require.False(t, ok)

	// Balance above the allocation (inbound transfers): no projection
	_, ok = DaysRemaining(500_000_000, 450_000_000)
	require.False(t, ok)
}

func TestCheck(t *testing.T) {
	cfg := &config.Config{
		CommunityReserve: "0xcommunity",
		TeamReserve:      "0xteam",
		LiquidityReserve: "0xliquidity",
		TreasuryReserve:  "0xtreasury",
	}
	issuer := &stubIssuer{
		balances: map[string]float64{
			"0xcommunity": 300_000_000, // 66.7% -> healthy, projected
			"0xteam":      60_000_000,  // 30% -> info
			"0xliquidity": 30_000_000,  // 12% -> warning
		},
		fail: map[string]bool{"0xtreasury": true}, // Read failure -> critical at zero
	}

	statuses := NewMonitor(issuer, cfg).Check(context.Background())
	require.Len(t, statuses, 4)

	byName := map[string]ReserveStatus{}
	for _, s := range statuses {
		byName[s.Name] = s
	}

	require.Equal(t, StatusHealthy, byName["community"].Status)
	require.NotNil(t, byName["community"].DaysRemaining)
	require.InDelta(t, 60, *byName["community"].DaysRemaining, 0.001)

	require.Equal(t, StatusInfo, byName["team"].Status)
	require.Nil(t, byName["team"].DaysRemaining) // Only the community reserve is projected

	require.Equal(t, StatusWarning, byName["liquidity"].Status)

	require.Equal(t, StatusCritical, byName["treasury"].Status)
	require.Zero(t, byName["treasury"].Current)
}
