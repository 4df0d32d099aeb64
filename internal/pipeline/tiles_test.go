package pipeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylens/skylens/internal/catalog"
	"github.com/skylens/skylens/internal/geom"
	"github.com/skylens/skylens/internal/registry"
)

func floatPtr(v float64) *float64 { return &v }

func seattleBBox() geom.BBox {
	return geom.BBox{West: -122.46, South: 47.49, East: -122.22, North: 47.73}
}

func tileQuery() *AssembledQuery {
	return &AssembledQuery{
		State: StateAssembled,
		BBox:  seattleBBox(),
		Selection: registry.Selection{Collections: []registry.SelectedCollection{
			{ID: "sentinel-2-l2a", GSD: 10, CloudCeiling: intPtr(20)},
			{ID: "landsat-c2-l2", GSD: 30, CloudCeiling: intPtr(20)},
			{ID: "sentinel-1-grd", GSD: 10, FilterExempt: true},
		}},
		Filter: &CloudFilter{MaxPercent: 20, Reason: FilterReasonDefault},
	}
}

func item(id, collection string, day int, bbox geom.BBox, cloud *float64) catalog.Item {
	return catalog.Item{
		ID:         id,
		Collection: collection,
		Datetime:   time.Date(2025, 8, day, 19, 0, 0, 0, time.UTC),
		BBox:       bbox,
		CloudCover: cloud,
	}
}

func TestSelectTiles_PrefersHigherResolution(t *testing.T) {
	wide := geom.BBox{West: -123, South: 47, East: -121, North: 48.5}
	items := []catalog.Item{
		item("landsat-1", "landsat-c2-l2", 12, wide, floatPtr(5)),
		item("s2-1", "sentinel-2-l2a", 12, wide, floatPtr(5)),
	}

	sel := SelectTiles(items, tileQuery())

	require.Len(t, sel.Items, 2)
	assert.Equal(t, "s2-1", sel.Items[0].ID, "10m beats 30m")
	assert.Equal(t, "landsat-1", sel.Items[1].ID)
}

func TestSelectTiles_PrefersFullCoverage(t *testing.T) {
	full := geom.BBox{West: -123, South: 47, East: -121, North: 48.5}
	partial := geom.BBox{West: -122.46, South: 47.49, East: -122.34, North: 47.73}
	items := []catalog.Item{
		item("partial", "sentinel-2-l2a", 12, partial, floatPtr(5)),
		item("full", "sentinel-2-l2a", 12, full, floatPtr(5)),
	}

	sel := SelectTiles(items, tileQuery())

	require.Len(t, sel.Items, 2)
	assert.Equal(t, "full", sel.Items[0].ID)
	assert.Greater(t, sel.Items[0].Rationale.Coverage, sel.Items[1].Rationale.Coverage)
}

func TestSelectTiles_PrefersConsistentDate(t *testing.T) {
	full := geom.BBox{West: -123, South: 47, East: -121, North: 48.5}
	items := []catalog.Item{
		item("odd-day", "sentinel-2-l2a", 2, full, floatPtr(5)),
		item("modal-a", "sentinel-2-l2a", 12, full, floatPtr(5)),
		item("modal-b", "sentinel-2-l2a", 12, full, floatPtr(6)),
	}

	sel := SelectTiles(items, tileQuery())

	require.Len(t, sel.Items, 3)
	assert.True(t, sel.Items[0].Rationale.ConsistentDate)
	assert.True(t, sel.Items[1].Rationale.ConsistentDate)
	assert.Equal(t, "odd-day", sel.Items[2].ID)
	assert.False(t, sel.Items[2].Rationale.ConsistentDate)
}

func TestSelectTiles_EnforcesCloudCeiling(t *testing.T) {
	full := geom.BBox{West: -123, South: 47, East: -121, North: 48.5}
	items := []catalog.Item{
		item("cloudy", "sentinel-2-l2a", 12, full, floatPtr(72)),
		item("clear", "sentinel-2-l2a", 12, full, floatPtr(3)),
		item("radar", "sentinel-1-grd", 12, full, nil),
	}

	sel := SelectTiles(items, tileQuery())

	assert.Equal(t, 3, sel.Considered)
	assert.Equal(t, 1, sel.Filtered)
	require.Len(t, sel.Items, 2)
	for _, it := range sel.Items {
		assert.NotEqual(t, "cloudy", it.ID)
	}
}

func TestSelectTiles_CapsAtLimit(t *testing.T) {
	full := geom.BBox{West: -123, South: 47, East: -121, North: 48.5}
	var items []catalog.Item
	for day := 1; day <= 20; day++ {
		items = append(items, item(fmt.Sprintf("scene-%02d", day), "sentinel-2-l2a", day, full, floatPtr(5)))
	}

	sel := SelectTiles(items, tileQuery())
	assert.Len(t, sel.Items, catalog.DefaultLimit)
}

func TestSelectTiles_Deterministic(t *testing.T) {
	full := geom.BBox{West: -123, South: 47, East: -121, North: 48.5}
	partial := geom.BBox{West: -122.4, South: 47.5, East: -122.3, North: 47.6}
	items := []catalog.Item{
		item("a", "sentinel-2-l2a", 3, partial, floatPtr(12)),
		item("b", "landsat-c2-l2", 12, full, floatPtr(8)),
		item("c", "sentinel-1-grd", 12, full, nil),
		item("d", "sentinel-2-l2a", 12, full, floatPtr(2)),
	}

	first := SelectTiles(items, tileQuery())
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, SelectTiles(items, tileQuery()))
	}
}

func TestSelectTiles_Empty(t *testing.T) {
	sel := SelectTiles(nil, tileQuery())
	assert.Zero(t, sel.Considered)
	assert.Empty(t, sel.Items)
}
