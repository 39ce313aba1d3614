package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version:        SnapshotVersion,
		RNGSeed:        42,
		Tick:           1000,
		SimTime:        16.5,
		PreyDeaths:     4,
		PredatorDeaths: 1,
		Entities: []EntityState{
			{
				ID:      "7f0c1a52-2f6e-4f3c-9d62-0d9f3b8f2a11",
				Kind:    "prey",
				State:   "alive",
				Health:  100,
				Scale:   1,
				X:       1.5,
				Y:       -2.5,
				VelX:    0.5,
				VelY:    -0.3,
				Heading: 1.2,
				Moving:  true,
				Lifetime: &LifetimeStatsJSON{
					SpawnTick:       100,
					DeathTick:       -1,
					SurvivalTimeSec: 15.0,
					Bounces:         2,
				},
			},
		},
		Bookmark: &Bookmark{
			Type:        BookmarkPreyCrash,
			Tick:        1000,
			Description: "Test bookmark",
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "snapshot_1000_prey_crash.json"), path)

	_, err = os.Stat(path)
	require.NoError(t, err)

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, snapshot, loaded)
}

func TestSnapshotFilenameWithoutBookmark(t *testing.T) {
	tmpDir := t.TempDir()

	path, err := SaveSnapshot(&Snapshot{Version: SnapshotVersion, Tick: 7}, tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "snapshot_7.json", filepath.Base(path))
}

func TestLoadSnapshotErrors(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := LoadSnapshot(filepath.Join(tmpDir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(tmpDir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	_, err = LoadSnapshot(bad)
	assert.Error(t, err)
}
