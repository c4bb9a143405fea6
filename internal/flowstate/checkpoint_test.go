package flowstate

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cvd.yaml")
	cp := NewCheckpoint(path)

	err := cp.Save(map[string]float64{"BTCUSDT": 12.5, "ETHUSDT": -3})
	require.NoError(t, err)

	values, err := cp.Load()
	require.NoError(t, err)
	assert.InDelta(t, 12.5, values["BTCUSDT"], 1e-9)
	assert.InDelta(t, -3.0, values["ETHUSDT"], 1e-9)
}

func TestCheckpointMissingFile(t *testing.T) {
	cp := NewCheckpoint(filepath.Join(t.TempDir(), "absent.yaml"))

	values, err := cp.Load()
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestCheckpointOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cvd.yaml")
	cp := NewCheckpoint(path)

	require.NoError(t, cp.Save(map[string]float64{"BTCUSDT": 1}))
	require.NoError(t, cp.Save(map[string]float64{"BTCUSDT": 2}))

	values, err := cp.Load()
	require.NoError(t, err)
	assert.InDelta(t, 2.0, values["BTCUSDT"], 1e-9)
}
