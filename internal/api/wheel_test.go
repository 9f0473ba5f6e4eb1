package api

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWheelWeightsSumTo100(t *testing.T) {
	require.Equal(t, 100, totalWheelWeight())
}

func TestDrawPrizeSegments(t *testing.T) {
	// First segment spans [0, 40)
	require.Equal(t, "nothing", drawPrize(0).Label)
	require.Equal(t, "nothing", drawPrize(39).Label)
	// Then [40, 70), [70, 85), [85, 95), [95, 99), [99, 100)
	require.Equal(t, "1 KCODE", drawPrize(40).Label)
	require.Equal(t, "1 KCODE", drawPrize(69).Label)
	require.Equal(t, "2 KCODE", drawPrize(70).Label)
	require.Equal(t, "5 KCODE", drawPrize(85).Label)
	require.Equal(t, "10 KCODE", drawPrize(95).Label)
	require.Equal(t, "50 KCODE", drawPrize(99).Label)
}

func TestDrawPrizeAmountsMatchLabels(t *testing.T) {
	total := 0
	for _, p := range wheelPrizes {
		require.GreaterOrEqual(t, p.Amount, 0.0)
		total += p.Weight
	}
	require.Equal(t, 100, total)
}
