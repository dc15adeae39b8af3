package table

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

func jsonRoundTrip(in any, out any) ([]byte, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	return data, json.Unmarshal(data, out)
}

func TestApply_Counts(t *testing.T) {
	rows := makeItems(12)
	q := Query{
		Criteria:        []Criterion{{Field: "status", Value: "completed"}},
		Sort:            ByColumn("stars", Descending),
		PaginationState: PaginationState{Page: 2, PageSize: 4},
	}

	got := Apply(rows, q, itemRegistry())

	if got.TotalCount != 12 {
		t.Errorf("TotalCount = %d, want 12", got.TotalCount)
	}
	if got.FilteredCount != 6 {
		t.Errorf("FilteredCount = %d, want 6", got.FilteredCount)
	}
	if got.TotalPages != 2 || got.Page != 2 {
		t.Errorf("TotalPages, Page = %d, %d; want 2, 2", got.TotalPages, got.Page)
	}
	// completed rows are r01, r03, ... r11 with stars 0, 2, ... 10.
	if want := []string{"r03", "r01"}; !reflect.DeepEqual(ids(got.Rows), want) {
		t.Errorf("Rows = %v, want %v", ids(got.Rows), want)
	}
}

func TestApply_EmptyDataset(t *testing.T) {
	got := Apply([]item{}, Query{Search: "x", PaginationState: PaginationState{Page: 4, PageSize: 5}}, itemRegistry())
	if got.TotalPages != 1 || got.Page != 1 || len(got.Rows) != 0 {
		t.Errorf("got %+v, want a single empty page", got)
	}
	if want := []WindowItem{PageItem(1)}; !reflect.DeepEqual(got.PageWindow, want) {
		t.Errorf("PageWindow = %v, want %v", got.PageWindow, want)
	}
}

func TestApply_HugePageSize(t *testing.T) {
	got := Apply(makeItems(5), Query{PaginationState: PaginationState{Page: 3, PageSize: math.MaxInt}}, itemRegistry())
	if got.TotalPages != 1 || got.Page != 1 || len(got.Rows) != 5 {
		t.Errorf("TotalPages, Page, rows = %d, %d, %d; want 1, 1, 5", got.TotalPages, got.Page, len(got.Rows))
	}
}

func TestApply_Idempotent(t *testing.T) {
	rows := makeItems(40)
	q := Query{
		Search:          "row",
		Criteria:        []Criterion{{Field: "category", Value: "Data"}},
		Sort:            ByColumn("title", Ascending),
		PaginationState: PaginationState{Page: 2, PageSize: 3},
	}
	reg := itemRegistry()

	first := Apply(rows, q, reg)
	second := Apply(rows, q, reg)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Apply not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestApply_DoesNotAliasDataset(t *testing.T) {
	rows := makeItems(5)
	got := Apply(rows, Query{PaginationState: PaginationState{Page: 1, PageSize: 5}}, itemRegistry())
	got.Rows[0].Title = "changed"
	if rows[0].Title == "changed" {
		t.Error("result rows alias the dataset")
	}
}

func TestMatching_ReturnsAllPages(t *testing.T) {
	rows := makeItems(25)
	q := Query{
		Criteria:        []Criterion{{Field: "category", Value: "Web Apps"}},
		Sort:            ByColumn("stars", Descending),
		PaginationState: PaginationState{Page: 1, PageSize: 2},
	}

	got := Matching(rows, q, itemRegistry())
	if len(got) != 9 {
		t.Fatalf("len = %d, want 9", len(got))
	}
	if got[0].ID != "r25" || got[8].ID != "r01" {
		t.Errorf("order = %v", ids(got))
	}
}

func TestFacets(t *testing.T) {
	rows := makeItems(12)
	q := Query{Criteria: []Criterion{
		{Field: "category", Value: "Mobile"},
		{Field: "status", Value: "completed"},
	}}

	got := Facets(rows, q, itemRegistry(), "category")
	want := []Facet{{"Web Apps", 2}, {"Data", 2}, {"Mobile", 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Facets(category) = %v, want %v", got, want)
	}

	if got := Facets(rows, q, itemRegistry(), "unknown"); len(got) != 0 {
		t.Errorf("Facets(unknown) = %v, want empty", got)
	}
}

func TestSelection_PersistsAcrossQueryChanges(t *testing.T) {
	rows := makeItems(12)
	reg := itemRegistry()

	page1 := Apply(rows, Query{PaginationState: PaginationState{Page: 1, PageSize: 5}}, reg)
	sel := Selection{}.Toggle(page1.Rows[2].ID) // r03

	// Resort so r03 moves to the last page.
	resorted := Apply(rows, Query{
		Sort:            ByColumn("stars", Descending),
		PaginationState: PaginationState{Page: 1, PageSize: 5},
	}, reg)
	for _, r := range resorted.Rows {
		if r.ID == "r03" {
			t.Fatal("r03 should have left page 1 after resorting")
		}
	}

	// Filter it out of view entirely.
	hidden := Apply(rows, Query{Criteria: []Criterion{{Field: "status", Value: "in-progress"}}}, reg)
	for _, r := range hidden.Rows {
		if r.ID == "r03" {
			t.Fatal("r03 should be filtered out")
		}
	}

	// Revert the filter.
	back := Apply(rows, Query{PaginationState: PaginationState{Page: 1, PageSize: 5}}, reg)
	if !sel.IsSelected(back.Rows[2].ID) {
		t.Error("r03 lost its selection")
	}
	if sel.Retain(reg.Keys(rows)).Len() != 1 {
		t.Error("Retain dropped a key still in the dataset")
	}
}
