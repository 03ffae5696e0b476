package cta2045

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridshift/hpwhctl/core/model"
)

func TestCommandString(t *testing.T) {
	assert.Equal(t, "Shed", Shed.String())
	assert.Equal(t, "Normal", Normal.String())
	assert.Equal(t, "Load Up", LoadUp.String())
	assert.Equal(t, "Advanced Load Up", AdvancedLoadUp.String())
	assert.Equal(t, "unknown", Command(7).String())
}

func TestFromSchedule(t *testing.T) {
	p, err := model.NewParameters(
		[]float64{0.1, 0.1, 0.1, 0.1, 0.1},
		[]float64{0, 0, 0, 0, 0},
		[]float64{1, 1, 1, 1, 1},
		0, 0, 100,
		model.ScalarBound(0), model.ListBound([]float64{2, 2, 2, 2, 0}),
	)
	require.NoError(t, err)

	s := model.Schedule{Control: []float64{0, 0.4, 1, 1.8, 0}}
	got := FromSchedule(s, p)
	// 0 sheds, 20% is normal, 50% loads up, 90% loads up aggressively and a
	// zero-capacity interval stays normal no matter the output.
	want := []Command{Shed, Normal, LoadUp, AdvancedLoadUp, Normal}
	assert.Equal(t, want, got)
}

func TestFromSchedule_FractionEdges(t *testing.T) {
	p, err := model.NewParameters(
		[]float64{0.1, 0.1},
		[]float64{0, 0},
		[]float64{1, 1},
		0, 0, 100,
		model.ScalarBound(0), model.ScalarBound(10),
	)
	require.NoError(t, err)

	// 30% is already a load up and 80% already an advanced load up.
	s := model.Schedule{Control: []float64{3, 8}}
	assert.Equal(t, []Command{LoadUp, AdvancedLoadUp}, FromSchedule(s, p))
}

func TestFromPrices(t *testing.T) {
	prices := []float64{0.10, 0.80, 0.20, 0.90, 0.30, 0.70, 0.40, 0.60}
	cmds, cuts, err := FromPrices(prices, DefaultThresholds())
	require.NoError(t, err)
	require.Len(t, cmds, len(prices))

	// The resolved cut points are ordered like the percentiles behind them.
	assert.Greater(t, cuts.Shed, cuts.Normal)
	assert.Greater(t, cuts.Normal, cuts.LoadUp)

	// Classification is monotone: a costlier hour never gets a cheaper-hour
	// command.
	for i := range prices {
		for j := range prices {
			if prices[i] > prices[j] && cmds[i] > cmds[j] {
				t.Errorf("price %v got %v while cheaper %v got %v",
					prices[i], cmds[i], prices[j], cmds[j])
			}
		}
	}

	// Extremes land on the extreme commands.
	assert.Equal(t, AdvancedLoadUp, cmds[0]) // cheapest hour
	assert.Equal(t, Shed, cmds[3])           // priciest hour
}

func TestFromPrices_UniformPrices(t *testing.T) {
	cmds, cuts, err := FromPrices([]float64{0.5, 0.5, 0.5}, DefaultThresholds())
	require.NoError(t, err)
	// Every cut collapses onto the single price, so every hour sheds.
	assert.Equal(t, 0.5, cuts.Shed)
	assert.Equal(t, []Command{Shed, Shed, Shed}, cmds)
}

func TestFromPrices_Empty(t *testing.T) {
	_, _, err := FromPrices(nil, DefaultThresholds())
	assert.Error(t, err)
}

func TestFromPrices_DoesNotReorderInput(t *testing.T) {
	prices := []float64{0.9, 0.1, 0.5}
	_, _, err := FromPrices(prices, DefaultThresholds())
	require.NoError(t, err)
	assert.Equal(t, []float64{0.9, 0.1, 0.5}, prices)
}

func TestFormatTable(t *testing.T) {
	cmds := []Command{Shed, AdvancedLoadUp}
	prices := []float64{0.3, 0.1}

	withOutput := FormatTable(cmds, prices, []float64{0, 2})
	assert.Contains(t, withOutput, "HP Output")
	assert.Contains(t, withOutput, "Shed")
	assert.Contains(t, withOutput, "Advanced Load Up")
	assert.Contains(t, withOutput, "kWh")

	priceOnly := FormatTable(cmds, prices, nil)
	assert.NotContains(t, priceOnly, "HP Output")
	assert.Equal(t, 2, strings.Count(priceOnly, "$"))
}
