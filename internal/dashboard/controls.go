package dashboard

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"launchdash/internal/launch"
)

// Query parameter names shared by the page form and the PNG endpoints.
const (
	QuerySite       = "site"
	QueryPayloadMin = "payload_min"
	QueryPayloadMax = "payload_max"
)

// State is the normalized control state of one dashboard render.
type State struct {
	Site  string
	Range launch.PayloadRange
}

// DefaultState selects every site and the full payload range.
func DefaultState(ds *launch.Dataset) State {
	b := ds.Bounds()
	return State{Site: launch.AllSites, Range: launch.PayloadRange{Low: b.Min, High: b.Max}}
}

// ParseState reads the controls from q and normalizes them against ds. Unknown
// sites fall back to all sites, unparsable bounds to the dataset bounds, values
// are clamped into the bounds and the low handle never passes the high one.
func ParseState(q url.Values, ds *launch.Dataset) State {
	st := DefaultState(ds)
	bounds := ds.Bounds()

	if site := strings.TrimSpace(q.Get(QuerySite)); site != "" && ds.HasSite(site) {
		st.Site = site
	}
	st.Range.Low = clamp(parseFloat(q.Get(QueryPayloadMin), bounds.Min), bounds)
	st.Range.High = clamp(parseFloat(q.Get(QueryPayloadMax), bounds.Max), bounds)
	if st.Range.Low > st.Range.High {
		st.Range.Low = st.Range.High
	}
	return st
}

// Query encodes the state so it round-trips through ParseState.
func (s State) Query() url.Values {
	q := url.Values{}
	q.Set(QuerySite, s.Site)
	q.Set(QueryPayloadMin, formatKg(s.Range.Low))
	q.Set(QueryPayloadMax, formatKg(s.Range.High))
	return q
}

func parseFloat(raw string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func clamp(v float64, b launch.PayloadBounds) float64 {
	return math.Min(math.Max(v, b.Min), b.Max)
}

func formatKg(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SiteOption is one entry of the site selector.
type SiteOption struct {
	Value    string
	Label    string
	Selected bool
}

// SiteOptions lists "All Sites" followed by every dataset site.
func SiteOptions(ds *launch.Dataset, selected string) []SiteOption {
	sites := ds.Sites()
	out := make([]SiteOption, 0, len(sites)+1)
	out = append(out, SiteOption{Value: launch.AllSites, Label: "All Sites", Selected: selected == launch.AllSites})
	for _, s := range sites {
		out = append(out, SiteOption{Value: s, Label: s, Selected: selected == s})
	}
	return out
}

// Mark is a labelled tick under the payload slider.
type Mark struct {
	Value float64
	Label string
}

// SliderMarks returns ticks at the minimum, midpoint and maximum payload,
// labelled as whole kilograms.
func SliderMarks(b launch.PayloadBounds) []Mark {
	values := []float64{b.Min, b.Mid(), b.Max}
	out := make([]Mark, 0, len(values))
	for _, v := range values {
		if len(out) > 0 && out[len(out)-1].Value == v {
			continue
		}
		out = append(out, Mark{Value: v, Label: strconv.Itoa(int(v))})
	}
	return out
}
