package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantlearn/quantbot/optimize"
)

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"period=21", "lower=25.5"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"period": 21, "lower": 25.5}, params)
}

func TestParseParamsInvalid(t *testing.T) {
	_, err := parseParams([]string{"period"})
	assert.Error(t, err)

	_, err = parseParams([]string{"period=abc"})
	assert.Error(t, err)
}

func TestParseGrid(t *testing.T) {
	grid, err := parseGrid([]string{"period=7:14:21", "lower=20:30"})
	require.NoError(t, err)
	require.Len(t, grid, 2)

	assert.Equal(t, optimize.Param{Name: "period", Values: []float64{7, 14, 21}}, grid[0])
	assert.Equal(t, optimize.Param{Name: "lower", Values: []float64{20, 30}}, grid[1])
}

func TestParseGridInvalid(t *testing.T) {
	_, err := parseGrid([]string{"period"})
	assert.Error(t, err)

	_, err = parseGrid([]string{"period=1:x"})
	assert.Error(t, err)
}
