package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/circuitcycle/backend/internal/domain"
)

func TestDefault(t *testing.T) {
	fx, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "u_001", fx.User.ID)
	assert.Equal(t, 1250, fx.User.Credits)
	assert.InDelta(t, 45.2, fx.User.CarbonSaved, 1e-9)

	require.Len(t, fx.Bins, 5)
	levels := make([]int, 0, len(fx.Bins))
	for _, b := range fx.Bins {
		levels = append(levels, b.FillLevel)
	}
	assert.Equal(t, []int{45, 92, 12, 78, 30}, levels)
	assert.Equal(t, domain.BinMaintenance, fx.Bins[3].Status)
	assert.Equal(t, "Hell's Kitchen Outpost", fx.Bins[3].Address)

	require.Len(t, fx.Leaderboard, 4)
	assert.Equal(t, domain.TrendStable, fx.Leaderboard[2].Trend)

	require.Len(t, fx.Catalog, 4)
	assert.Equal(t, []string{"FixIt Felix - 0.2km", "TechHealers - 0.5km"}, fx.Catalog[0].RepairShops)
	assert.Nil(t, fx.Catalog[1].RepairShops)
}

func TestParse_RejectsFillLevelOutOfRange(t *testing.T) {
	raw := []byte(`
user: { id: u_1, name: x, credits: 0, carbonSaved: 0 }
bins:
  - { id: b_1, lat: 1, lng: 1, type: General, fillLevel: 140, status: Active }
leaderboard: []
catalog:
  - { id: i_1, name: cable, category: Cable, condition: Good }
`)
	_, err := Parse(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid fixture")
}

func TestParse_RejectsUnknownCategory(t *testing.T) {
	raw := []byte(`
user: { id: u_1, name: x, credits: 0, carbonSaved: 0 }
bins:
  - { id: b_1, lat: 1, lng: 1, type: Glass, fillLevel: 10, status: Active }
leaderboard: []
catalog:
  - { id: i_1, name: cable, category: Cable, condition: Good }
`)
	_, err := Parse(raw)
	require.Error(t, err)
}

func TestMarshalRoundTripThroughLoad(t *testing.T) {
	fx, err := Default()
	require.NoError(t, err)

	raw, err := Marshal(fx)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, fx, loaded)
}
