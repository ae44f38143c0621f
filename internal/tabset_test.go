package montop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func tabs(names ...string) *TabSet {
	ts := NewTabSet()
	for _, name := range names {
		ts.Add(NewMetricsTable(&fakeService{}, &fakeNotifier{}, nil).SetMetrics(name))
	}
	return ts
}

func TestTabSet_Navigation(t *testing.T) {
	ts := tabs("cpu", "memory", "disk")
	assert.Equal(t, "cpu", ts.Current().Metrics())

	ts.NextTab(nil)
	assert.Equal(t, "memory", ts.Current().Metrics())
	ts.NextTab(nil).NextTab(nil)
	assert.Equal(t, "cpu", ts.Current().Metrics(), "wraps around")

	ts.PrevTab(nil)
	assert.Equal(t, "disk", ts.Current().Metrics())

	ts.SelectTab(1)
	assert.Equal(t, 1, ts.SelectedTab())
	ts.SelectTab(9)
	assert.Equal(t, 1, ts.SelectedTab())
}

func TestTabSet_NavigationWithFilter(t *testing.T) {
	ts := tabs("cpu", "memory", "disk", "net")
	ts.Find("disk").SetFavoriteStatus(true)
	ts.Find("cpu").SetFavoriteStatus(true)

	ts.NextTab((*MetricsTable).IsFavorite)
	assert.Equal(t, "disk", ts.Current().Metrics())
	ts.NextTab((*MetricsTable).IsFavorite)
	assert.Equal(t, "cpu", ts.Current().Metrics())
}

func TestTabSet_Empty(t *testing.T) {
	ts := NewTabSet()
	assert.Nil(t, ts.Current())
	ts.NextTab(nil).PrevTab(nil)
	assert.Equal(t, "", ts.Render())
}

func TestTabSet_SortFavoritesFirst(t *testing.T) {
	ts := tabs("cpu", "memory", "disk", "net")
	ts.SelectTab(1)
	ts.Find("net").SetFavoriteStatus(true)
	ts.Find("disk").SetFavoriteStatus(true)

	ts.SortFavoritesFirst()

	var order []string
	for _, tbl := range ts.Tables() {
		order = append(order, tbl.Metrics())
	}
	assert.Equal(t, []string{"disk", "net", "cpu", "memory"}, order)
	assert.Equal(t, "memory", ts.Current().Metrics(), "the active table stays active")
	assert.Len(t, ts.Favorites(), 2)
}

func TestTabSet_Render(t *testing.T) {
	ts := tabs("cpu", "memory")
	ts.Find("memory").SetFavoriteStatus(true)

	out := ts.Render()
	assert.Contains(t, out, "cpu")
	assert.Contains(t, out, "★ memory")
	assert.Nil(t, ts.Find("disk"))
	assert.Equal(t, 2, ts.Len())
}
