package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPlans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.json")
	data := `[
		{"name":"Pro","price":"19.90","stripe_price_id":"price_pro","features":["exports"],"is_active":true},
		{"name":"Team","price":"49","currency":"eur","interval":"year","stripe_price_id":"price_team"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	plans, err := readPlans(path)
	require.NoError(t, err)
	require.Len(t, plans, 2)

	assert.Equal(t, "19.9", plans[0].Price.String())
	assert.Equal(t, "brl", plans[0].Currency)
	assert.Equal(t, "month", plans[0].Interval)
	assert.Equal(t, []string{"exports"}, plans[0].Features)
	assert.Equal(t, "eur", plans[1].Currency)
	assert.Equal(t, "year", plans[1].Interval)
}

func TestReadPlansErrors(t *testing.T) {
	_, err := readPlans(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"not an array"}`), 0o600))
	_, err = readPlans(path)
	assert.Error(t, err)
}

func TestCommandTree(t *testing.T) {
	for _, args := range [][]string{
		{"migrate", "up"},
		{"migrate", "down"},
		{"users", "promote"},
		{"plans", "seed"},
		{"events", "setup"},
	} {
		cmd, _, err := rootCmd.Find(args)
		require.NoError(t, err, args)
		assert.Equal(t, args[len(args)-1], cmd.Name())
	}
}
