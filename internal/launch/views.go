package launch

import "fmt"

// Outcome labels used by the single-site aggregation.
const (
	LabelFailure = "Failure"
	LabelSuccess = "Success"
)

// Slice is one labelled count of the success pie.
type Slice struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// PayloadRange is an inclusive payload filter in kilograms.
type PayloadRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Contains reports whether payload lies within the range, inclusive.
func (r PayloadRange) Contains(payload float64) bool {
	return payload >= r.Low && payload <= r.High
}

// SuccessTitle returns the pie chart title for a site filter.
func SuccessTitle(site string) string {
	if site == AllSites {
		return "Total Successful Launches by Site"
	}
	return fmt.Sprintf("Success vs. Failure for site %s", site)
}

// ScatterTitle is the title of the payload scatter chart.
const ScatterTitle = "Payload vs. Launch Outcome"

// Axis labels of the payload scatter chart.
const (
	ScatterXAxisLabel = "Payload Mass (kg)"
	ScatterYAxisLabel = "Launch Outcome (0 = Failure, 1 = Success)"
)

// SuccessBySite aggregates outcomes for the pie chart.
//
// For AllSites it counts successful launches per site, listing every site in
// sorted order even when its count is zero. For a single site it counts that
// site's failures and successes, in that order, omitting zero counts. An
// unknown site yields no slices.
func (d *Dataset) SuccessBySite(site string) []Slice {
	if site == AllSites {
		counts := make(map[string]int, len(d.sites))
		for _, r := range d.records {
			if r.Success {
				counts[r.Site]++
			}
		}
		out := make([]Slice, 0, len(d.sites))
		for _, s := range d.sites {
			out = append(out, Slice{Label: s, Count: counts[s]})
		}
		return out
	}

	var failures, successes int
	for _, r := range d.records {
		if r.Site != site {
			continue
		}
		if r.Success {
			successes++
		} else {
			failures++
		}
	}
	out := make([]Slice, 0, 2)
	if failures > 0 {
		out = append(out, Slice{Label: LabelFailure, Count: failures})
	}
	if successes > 0 {
		out = append(out, Slice{Label: LabelSuccess, Count: successes})
	}
	return out
}

// PayloadScatter returns the records whose payload lies within rng and, unless
// site is AllSites, that were launched from site. Load order is preserved.
func (d *Dataset) PayloadScatter(rng PayloadRange, site string) []Record {
	out := make([]Record, 0)
	for _, r := range d.records {
		if !rng.Contains(r.PayloadMassKg) {
			continue
		}
		if site != AllSites && r.Site != site {
			continue
		}
		out = append(out, r)
	}
	return out
}

// GroupByBooster splits records into per-booster-category series.
func GroupByBooster(records []Record) map[string][]Record {
	out := make(map[string][]Record)
	for _, r := range records {
		out[r.BoosterCategory] = append(out[r.BoosterCategory], r)
	}
	return out
}

// SiteSummary is the per-site outcome tally printed by the inspect command.
type SiteSummary struct {
	Site      string `json:"site"`
	Successes int    `json:"successes"`
	Failures  int    `json:"failures"`
}

// Summaries tallies outcomes for every site in sorted order.
func (d *Dataset) Summaries() []SiteSummary {
	idx := make(map[string]int, len(d.sites))
	out := make([]SiteSummary, len(d.sites))
	for i, s := range d.sites {
		idx[s] = i
		out[i].Site = s
	}
	for _, r := range d.records {
		if r.Success {
			out[idx[r.Site]].Successes++
		} else {
			out[idx[r.Site]].Failures++
		}
	}
	return out
}
