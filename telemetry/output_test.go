package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/zoo/components"
	"github.com/pthm-cable/zoo/config"
)

func TestNewOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	require.NoError(t, err)
	assert.Nil(t, om)

	// Nil manager is a no-op
	assert.NoError(t, om.WriteTelemetry(WindowStats{}))
	assert.NoError(t, om.WriteResolutions([]ResolutionRecord{{}}))
	assert.NoError(t, om.Close())
	assert.Equal(t, "", om.Dir())
}

func TestOutputManagerWritesHeaderOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	require.NoError(t, err)

	require.NoError(t, om.WriteTelemetry(WindowStats{WindowEndTick: 600, PreyCount: 3}))
	require.NoError(t, om.WriteTelemetry(WindowStats{WindowEndTick: 1200, PreyCount: 4}))

	prey := Party{ID: "a", Kind: components.KindPrey}
	pred := Party{ID: "b", Kind: components.KindPredator}
	require.NoError(t, om.WriteResolutions([]ResolutionRecord{
		NewResolutionRecord(30, 0.5, 0.1, "eating", pred, prey),
	}))
	require.NoError(t, om.WriteConfig(config.Default()))
	require.NoError(t, om.Close())

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "window_end,sim_time,prey,"))
	assert.True(t, strings.HasPrefix(lines[2], "1200,"))

	data, err = os.ReadFile(filepath.Join(dir, "resolutions.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "eating,b,predator,a,prey")

	_, err = config.Load(filepath.Join(dir, "config.yaml"))
	assert.NoError(t, err, "written config must load back")
}

func TestResolutionRecordLatency(t *testing.T) {
	r := NewResolutionRecord(1, 2.5, 1.0, "fight", Party{}, Party{})
	assert.InDelta(t, 1.5, r.Latency(), 1e-9)
}
