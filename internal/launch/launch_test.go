package launch

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func exampleDataset(t *testing.T) *Dataset {
	t.Helper()
	records := []Record{
		{Site: "A", PayloadMassKg: 1000, BoosterCategory: "v1.0", Success: true},
		{Site: "A", PayloadMassKg: 2500, BoosterCategory: "v1.1", Success: true},
		{Site: "A", PayloadMassKg: 4000, BoosterCategory: "FT", Success: true},
		{Site: "A", PayloadMassKg: 0, BoosterCategory: "v1.0", Success: false},
		{Site: "B", PayloadMassKg: 2500, BoosterCategory: "FT", Success: false},
		{Site: "B", PayloadMassKg: 9600, BoosterCategory: "B4", Success: false},
	}
	ds, err := NewDataset(records)
	if err != nil {
		t.Fatalf("new dataset: %v", err)
	}
	return ds
}

func TestNewDatasetComputesBoundsAndSites(t *testing.T) {
	ds := exampleDataset(t)
	if ds.Len() != 6 {
		t.Fatalf("expected 6 records, got %d", ds.Len())
	}
	if diff := cmp.Diff(PayloadBounds{Min: 0, Max: 9600}, ds.Bounds()); diff != "" {
		t.Fatalf("bounds mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"A", "B"}, ds.Sites()); diff != "" {
		t.Fatalf("sites mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"B4", "FT", "v1.0", "v1.1"}, ds.BoosterCategories()); diff != "" {
		t.Fatalf("boosters mismatch (-want +got):\n%s", diff)
	}
	if !ds.HasSite("B") || ds.HasSite("C") {
		t.Fatalf("unexpected HasSite results")
	}
	if ds.Bounds().Mid() != 4800 {
		t.Fatalf("unexpected midpoint %v", ds.Bounds().Mid())
	}
}

func TestNewDatasetRejectsInvalidRecords(t *testing.T) {
	cases := map[string][]Record{
		"empty":    nil,
		"negative": {{Site: "A", PayloadMassKg: -1}},
		"no site":  {{Site: "", PayloadMassKg: 1}},
		"reserved": {{Site: "A", PayloadMassKg: 1}, {Site: AllSites, PayloadMassKg: 2}},
	}
	for name, records := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewDataset(records); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
	if _, err := NewDataset(nil); !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
	if _, err := NewDataset([]Record{{Site: AllSites}}); !errors.Is(err, ErrReservedSite) {
		t.Fatalf("expected ErrReservedSite, got %v", err)
	}
	if _, err := NewDataset([]Record{{Site: "all"}}); err != nil {
		t.Fatalf("site match is case-sensitive, got %v", err)
	}
}

func TestDatasetRecordsAreCopies(t *testing.T) {
	ds := exampleDataset(t)
	recs := ds.Records()
	recs[0].Site = "mutated"
	sites := ds.Sites()
	sites[0] = "mutated"
	if ds.Records()[0].Site != "A" || ds.Sites()[0] != "A" {
		t.Fatalf("dataset mutated through returned slices")
	}
}

func TestSuccessBySiteAllSites(t *testing.T) {
	ds := exampleDataset(t)
	got := ds.SuccessBySite(AllSites)
	want := []Slice{{Label: "A", Count: 3}, {Label: "B", Count: 0}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("all-sites pie mismatch (-want +got):\n%s", diff)
	}

	total := 0
	for _, s := range got {
		total += s.Count
	}
	successes := 0
	for _, r := range ds.Records() {
		if r.Success {
			successes++
		}
	}
	if total != successes {
		t.Fatalf("pie total %d != successful records %d", total, successes)
	}
}

func TestSuccessBySiteSingleSite(t *testing.T) {
	ds := exampleDataset(t)
	if diff := cmp.Diff([]Slice{{Label: LabelFailure, Count: 2}}, ds.SuccessBySite("B")); diff != "" {
		t.Fatalf("site B mismatch (-want +got):\n%s", diff)
	}
	gotA := ds.SuccessBySite("A")
	if diff := cmp.Diff([]Slice{{Label: LabelFailure, Count: 1}, {Label: LabelSuccess, Count: 3}}, gotA); diff != "" {
		t.Fatalf("site A mismatch (-want +got):\n%s", diff)
	}
	for _, site := range ds.Sites() {
		sum := 0
		for _, s := range ds.SuccessBySite(site) {
			sum += s.Count
		}
		want := 0
		for _, r := range ds.Records() {
			if r.Site == site {
				want++
			}
		}
		if sum != want {
			t.Fatalf("site %s: success+failure %d != records %d", site, sum, want)
		}
	}
	if got := ds.SuccessBySite("nowhere"); len(got) != 0 {
		t.Fatalf("expected empty result for unknown site, got %v", got)
	}
}

func TestPayloadScatterRangeAndSite(t *testing.T) {
	ds := exampleDataset(t)
	ranges := []PayloadRange{{0, 9600}, {1000, 4000}, {2500, 2500}, {5000, 9000}, {3000, 2000}}
	for _, rng := range ranges {
		for _, site := range []string{AllSites, "A", "B"} {
			for _, r := range ds.PayloadScatter(rng, site) {
				if r.PayloadMassKg < rng.Low || r.PayloadMassKg > rng.High {
					t.Fatalf("range %+v returned payload %v", rng, r.PayloadMassKg)
				}
				if site != AllSites && r.Site != site {
					t.Fatalf("site filter %s returned %s", site, r.Site)
				}
			}
		}
	}

	exact := ds.PayloadScatter(PayloadRange{Low: 2500, High: 2500}, AllSites)
	if len(exact) != 2 {
		t.Fatalf("expected 2 exact matches, got %d", len(exact))
	}
	if got := ds.PayloadScatter(PayloadRange{Low: 2501, High: 2501}, AllSites); len(got) != 0 {
		t.Fatalf("expected no matches, got %v", got)
	}
	if got := ds.PayloadScatter(PayloadRange{Low: 3000, High: 2000}, AllSites); len(got) != 0 {
		t.Fatalf("inverted range should match nothing, got %v", got)
	}
	onlyB := ds.PayloadScatter(PayloadRange{Low: 0, High: 9600}, "B")
	if len(onlyB) != 2 || onlyB[0].PayloadMassKg != 2500 || onlyB[1].PayloadMassKg != 9600 {
		t.Fatalf("unexpected site B scatter: %+v", onlyB)
	}
}

func TestGroupByBoosterAndSummaries(t *testing.T) {
	ds := exampleDataset(t)
	groups := GroupByBooster(ds.Records())
	if len(groups["v1.0"]) != 2 || len(groups["FT"]) != 2 {
		t.Fatalf("unexpected grouping: %+v", groups)
	}
	want := []SiteSummary{{Site: "A", Successes: 3, Failures: 1}, {Site: "B", Successes: 0, Failures: 2}}
	if diff := cmp.Diff(want, ds.Summaries()); diff != "" {
		t.Fatalf("summaries mismatch (-want +got):\n%s", diff)
	}
}

func TestTitles(t *testing.T) {
	if SuccessTitle(AllSites) != "Total Successful Launches by Site" {
		t.Fatalf("unexpected all-sites title")
	}
	if SuccessTitle("CCAFS LC-40") != "Success vs. Failure for site CCAFS LC-40" {
		t.Fatalf("unexpected site title")
	}
}

const sampleCSV = `,Flight Number,Launch Site,class,Payload Mass (kg),Booster Version,Booster Version Category
0,1,CCAFS LC-40,0,0.0,F9 v1.0  B0003,v1.0
1,2,CCAFS LC-40,0,0.0,F9 v1.0  B0004,v1.0
2,3,CCAFS LC-40,0,525.0,F9 v1.0  B0005,v1.0
3,4,VAFB SLC-4E,1,500.0,F9 v1.1  B1003,v1.1
4,5,KSC LC-39A,1,5300.0,F9 FT B1031.1,FT
`

func TestParseCSV(t *testing.T) {
	records, err := ParseCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("expected 5 records, got %d", len(records))
	}
	want := Record{Site: "KSC LC-39A", PayloadMassKg: 5300, BoosterCategory: "FT", Success: true}
	if diff := cmp.Diff(want, records[4]); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
	if records[2].Class() != 0 || records[3].Class() != 1 {
		t.Fatalf("unexpected class values")
	}
}

func TestParseCSVErrors(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		line   int
		column string
	}{
		{name: "missing column", input: "Launch Site,class,Payload Mass (kg)\nA,1,10\n", line: 1, column: ColumnBooster},
		{name: "bad payload", input: "Launch Site,class,Payload Mass (kg),Booster Version Category\nA,1,heavy,FT\n", line: 2, column: ColumnPayload},
		{name: "negative payload", input: "Launch Site,class,Payload Mass (kg),Booster Version Category\nA,1,10,FT\nA,1,-5,FT\n", line: 3, column: ColumnPayload},
		{name: "bad class", input: "Launch Site,class,Payload Mass (kg),Booster Version Category\nA,2,10,FT\n", line: 2, column: ColumnClass},
		{name: "short row", input: "Launch Site,class,Payload Mass (kg),Booster Version Category\nA,1\n", line: 2, column: ColumnPayload},
		{name: "empty site", input: "Launch Site,class,Payload Mass (kg),Booster Version Category\n,1,10,FT\n", line: 2, column: ColumnSite},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tc.input))
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if perr.Line != tc.line || perr.Column != tc.column {
				t.Fatalf("unexpected position: line %d column %q (%v)", perr.Line, perr.Column, perr)
			}
		})
	}

	if _, err := ParseCSV(strings.NewReader("")); err == nil {
		t.Fatalf("expected error for empty input")
	}
	_, err := ParseCSV(strings.NewReader("Launch Site,class,Payload Mass (kg),Booster Version Category\n"))
	if !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
}

func TestParseClass(t *testing.T) {
	for raw, want := range map[string]bool{"0": false, "1": true, "1.0": true, " 0.0 ": false} {
		got, err := ParseClass(raw)
		if err != nil || got != want {
			t.Fatalf("ParseClass(%q) = %v, %v", raw, got, err)
		}
	}
	if _, err := ParseClass("yes"); err == nil {
		t.Fatalf("expected error")
	}
}
