package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/greenops"
)

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr error
	}{
		{name: "valid default", params: Params{}},
		{name: "valid offset mode", params: Params{Limit: 10, Offset: 20}},
		{name: "valid page mode", params: Params{Page: 2, PageSize: 10}},
		{name: "valid sort", params: Params{Sort: "impact:desc"}},
		{name: "negative limit", params: Params{Limit: -1}, wantErr: ErrInvalidLimit},
		{name: "limit too large", params: Params{Limit: MaxLimit + 1}, wantErr: ErrInvalidLimit},
		{name: "negative offset", params: Params{Offset: -1}, wantErr: ErrInvalidOffset},
		{name: "mixed modes", params: Params{Page: 1, PageSize: 5, Offset: 3}, wantErr: ErrMixedPaginationModes},
		{name: "page size without page", params: Params{PageSize: 5}, wantErr: ErrPageSizeWithoutPage},
		{name: "page without page size", params: Params{Page: 2}, wantErr: ErrInvalidPage},
		{name: "bad sort order", params: Params{Sort: "time:sideways"}, wantErr: ErrInvalidSortOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		input     string
		wantField string
		wantOrder string
		wantErr   error
	}{
		{"", "time", "asc", nil},
		{"impact", "impact", "asc", nil},
		{"impact:DESC", "impact", "desc", nil},
		{" type : asc ", "type", "asc", nil},
		{":desc", "", "", ErrEmptySortField},
		{"a:b:c", "", "", ErrInvalidSortFormat},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			field, order, err := ParseSort(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantField, field)
			assert.Equal(t, tt.wantOrder, order)
		})
	}
}

func TestApply(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	assert.Equal(t, items, Apply(items, Params{}))
	assert.Equal(t, []int{3, 4}, Apply(items, Params{Offset: 2, Limit: 2}))
	assert.Equal(t, []int{6, 7}, Apply(items, Params{Offset: 5, Limit: 10}))
	assert.Empty(t, Apply(items, Params{Offset: 20}))
	assert.Equal(t, []int{4, 5, 6}, Apply(items, Params{Page: 2, PageSize: 3}))
	assert.Equal(t, []int{7}, Apply(items, Params{Page: 3, PageSize: 3}))
}

func TestNewMeta(t *testing.T) {
	m := NewMeta(Params{Page: 2, PageSize: 3}, 7)
	assert.Equal(t, Meta{CurrentPage: 2, PageSize: 3, TotalPages: 3, TotalItems: 7, HasPrevious: true, HasNext: true}, m)
	assert.Equal(t, "Page 2 of 3 (7 records)", m.String())

	m = NewMeta(Params{Offset: 4, Limit: 2}, 5)
	assert.Equal(t, 3, m.CurrentPage)
	assert.False(t, m.HasNext)

	m = NewMeta(Params{}, 0)
	assert.Equal(t, "Page 1 of 1 (0 records)", m.String())
}

func TestSortActivities(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	records := []engine.ActivityRecord{
		{ID: "a", Category: greenops.CategoryFood, Type: "beef", CO2Impact: 13.5, Timestamp: base.Add(2 * time.Hour)},
		{ID: "b", Category: greenops.CategoryEnergy, Type: "electricity", CO2Impact: 5, Timestamp: base},
		{ID: "c", Category: greenops.CategoryEnergy, Type: "natural_gas", CO2Impact: 13.5, Timestamp: base.Add(time.Hour)},
	}

	ids := func(rs []engine.ActivityRecord) []string {
		out := make([]string, len(rs))
		for i, r := range rs {
			out[i] = r.ID
		}
		return out
	}

	assert.Equal(t, []string{"b", "c", "a"}, ids(SortActivities(records, "time", SortOrderAsc)))
	assert.Equal(t, []string{"a", "c", "b"}, ids(SortActivities(records, "impact", SortOrderDesc)))
	assert.Equal(t, []string{"b", "c", "a"}, ids(SortActivities(records, "category", SortOrderAsc)))
	assert.Equal(t, []string{"a", "b", "c"}, ids(SortActivities(records, "unknown", SortOrderAsc)))
	assert.Equal(t, "a", records[0].ID, "input is not modified")
}

func TestSortActions(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	records := []engine.PositiveActionRecord{
		{ID: "p1", ActionID: greenops.ActionRenewableEnergy, CO2Saved: 2250, Timestamp: base},
		{ID: "p2", ActionID: greenops.ActionPlantTree, CO2Saved: 21, Timestamp: base.Add(time.Hour)},
	}

	sorted := SortActions(records, "impact", SortOrderAsc)
	assert.Equal(t, "p2", sorted[0].ID)
	sorted = SortActions(records, "action", SortOrderAsc)
	assert.Equal(t, "p2", sorted[0].ID)
	sorted = SortActions(records, "time", SortOrderDesc)
	assert.Equal(t, "p2", sorted[0].ID)
}

func TestCheckSortField(t *testing.T) {
	require.NoError(t, CheckSortField("impact", ""))
	require.NoError(t, CheckSortField("category", "activities"))
	require.NoError(t, CheckSortField("action", "actions"))
	require.ErrorIs(t, CheckSortField("category", ""), ErrInvalidSortField)
	require.ErrorIs(t, CheckSortField("action", "activities"), ErrInvalidSortField)
	assert.Equal(t, []string{"time", "impact"}, ValidFields())
}
