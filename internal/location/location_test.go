package location

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Bundled(t *testing.T) {
	table, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 36, table.Len())

	states := table.States()
	assert.Equal(t, "Andhra Pradesh", states[0])
	assert.Contains(t, states, "Karnataka")

	districts, err := table.Districts("Goa")
	require.NoError(t, err)
	assert.Equal(t, []string{"North Goa", "South Goa"}, districts)
}

func TestParse_PreservesOrder(t *testing.T) {
	table, err := Parse(strings.NewReader(`{"Zeta":["b","a"],"Alpha":["x"],"Mid":[]}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"Zeta", "Alpha", "Mid"}, table.States())

	data, err := json.Marshal(table)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Zeta":["b","a"],"Alpha":["x"],"Mid":[]}`, string(data))
	assert.True(t, strings.HasPrefix(string(data), `{"Zeta":`), "keys keep file order: %s", data)
}

func TestDistricts_NotFound(t *testing.T) {
	table, err := Parse(strings.NewReader(`{"Known":["One"],"Empty":[]}`))
	require.NoError(t, err)

	_, err = table.Districts("Unknown")
	assert.ErrorIs(t, err, ErrStateNotFound)

	_, err = table.Districts("Empty")
	assert.ErrorIs(t, err, ErrStateNotFound)

	_, err = table.Districts("known")
	assert.ErrorIs(t, err, ErrStateNotFound, "lookup is exact")
}

func TestTable_ReturnsCopies(t *testing.T) {
	table, err := Parse(strings.NewReader(`{"A":["one","two"]}`))
	require.NoError(t, err)

	states := table.States()
	states[0] = "mutated"
	districts, _ := table.Districts("A")
	districts[0] = "mutated"

	assert.Equal(t, []string{"A"}, table.States())
	again, _ := table.Districts("A")
	assert.Equal(t, []string{"one", "two"}, again)
}

func TestParse_Errors(t *testing.T) {
	tests := map[string]string{
		"not an object":   `["a"]`,
		"duplicate state": `{"A":["x"],"A":["y"]}`,
		"bad districts":   `{"A":"x"}`,
		"truncated":       `{"A":["x"]`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestLoad_FromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Custom":["Only"]}`), 0o600))

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Custom"}, table.States())

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
