package dashboard

import (
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"launchdash/internal/launch"
)

// EChartsURL is the script the page loads to draw the option JSON.
const EChartsURL = "https://go-echarts.github.io/go-echarts-assets/assets/echarts.min.js"

type optionSource interface {
	Validate()
	JSON() map[string]any
}

// SuccessFigure builds the pie chart of outcome counts for site.
func SuccessFigure(slices []launch.Slice, site string) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: launch.SuccessTitle(site)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item", Formatter: "{b}: {c} ({d}%)"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
	)
	data := make([]opts.PieData, 0, len(slices))
	for _, s := range slices {
		data = append(data, opts.PieData{Name: s.Label, Value: s.Count})
	}
	pie.AddSeries("Launches", data).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {c}"}))
	return pie
}

// ScatterFigure builds the payload against outcome scatter with one series
// per booster category. categories fixes the series order so colours stay
// stable while filters change.
func ScatterFigure(points []launch.Record, categories []string) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: launch.ScatterTitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
		charts.WithXAxisOpts(opts.XAxis{Name: launch.ScatterXAxisLabel, Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: launch.ScatterYAxisLabel, Type: "value", Min: 0, Max: 1}),
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
	)
	groups := launch.GroupByBooster(points)
	for _, category := range categories {
		data := make([]opts.ScatterData, 0, len(groups[category]))
		for _, r := range groups[category] {
			data = append(data, opts.ScatterData{
				Name:       r.Site,
				Value:      []any{r.PayloadMassKg, r.Class()},
				SymbolSize: 12,
			})
		}
		scatter.AddSeries(category, data)
	}
	return scatter
}

// optionJSON serializes a chart's echarts option object for inline use.
func optionJSON(c optionSource) (template.JS, error) {
	c.Validate()
	raw, err := json.Marshal(c.JSON())
	if err != nil {
		return "", fmt.Errorf("encode chart options: %w", err)
	}
	return template.JS(raw), nil
}
