package dashboard

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"launchdash/internal/launch"
)

const (
	pngWidth  = 720
	pngHeight = 420
)

var seriesColors = []drawing.Color{
	chart.ColorBlue,
	chart.ColorOrange,
	chart.ColorGreen,
	chart.ColorRed,
	chart.ColorCyan,
	chart.ColorYellow,
	chart.ColorAlternateGray,
}

// RenderSuccessPNG draws the success pie. Zero slices are left out and an
// empty chart becomes a placeholder image.
func RenderSuccessPNG(w io.Writer, slices []launch.Slice, site string) error {
	values := make([]chart.Value, 0, len(slices))
	for _, s := range slices {
		if s.Count == 0 {
			continue
		}
		values = append(values, chart.Value{Label: fmt.Sprintf("%s (%d)", s.Label, s.Count), Value: float64(s.Count)})
	}
	title := launch.SuccessTitle(site)
	if len(values) == 0 {
		return placeholderPNG(w, title, "No launches match the selection")
	}
	pie := chart.PieChart{
		Title:  title,
		Width:  pngWidth,
		Height: pngHeight,
		Values: values,
	}
	return pie.Render(chart.PNG, w)
}

// RenderScatterPNG draws payload against outcome, one coloured dot series
// per booster category. rng sets the x axis so the view matches the slider.
func RenderScatterPNG(w io.Writer, points []launch.Record, categories []string, rng launch.PayloadRange) error {
	groups := launch.GroupByBooster(points)
	series := make([]chart.Series, 0, len(categories))
	for i, category := range categories {
		group := groups[category]
		if len(group) == 0 {
			continue
		}
		xs := make([]float64, 0, len(group)+1)
		ys := make([]float64, 0, len(group)+1)
		for _, r := range group {
			xs = append(xs, r.PayloadMassKg)
			ys = append(ys, float64(r.Class()))
		}
		if len(xs) == 1 {
			// go-chart needs two values per series.
			xs = append(xs, xs[0])
			ys = append(ys, ys[0])
		}
		col := seriesColors[i%len(seriesColors)]
		series = append(series, chart.ContinuousSeries{
			Name:    category,
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeWidth: chart.Disabled, DotWidth: 5, DotColor: col},
		})
	}
	if len(series) == 0 {
		return placeholderPNG(w, launch.ScatterTitle, "No launches in the selected payload range")
	}
	low, high := rng.Low, rng.High
	if high <= low {
		low, high = low-500, high+500
	}
	graph := chart.Chart{
		Title:      launch.ScatterTitle,
		Width:      pngWidth,
		Height:     pngHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:  launch.ScatterXAxisLabel,
			Range: &chart.ContinuousRange{Min: low, Max: high},
		},
		YAxis: chart.YAxis{
			Name:  launch.ScatterYAxisLabel,
			Range: &chart.ContinuousRange{Min: -0.1, Max: 1.1},
			Ticks: []chart.Tick{{Value: 0, Label: "0"}, {Value: 1, Label: "1"}},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph.Render(chart.PNG, w)
}

// placeholderPNG writes a framed blank image carrying title and message.
func placeholderPNG(w io.Writer, title, message string) error {
	img := image.NewRGBA(image.Rect(0, 0, pngWidth, pngHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	frame := color.RGBA{R: 210, G: 210, B: 210, A: 255}
	for x := 0; x < pngWidth; x++ {
		img.Set(x, 0, frame)
		img.Set(x, pngHeight-1, frame)
	}
	for y := 0; y < pngHeight; y++ {
		img.Set(0, y, frame)
		img.Set(pngWidth-1, y, frame)
	}
	drawCentered(img, title, 30, color.Black)
	drawCentered(img, message, pngHeight/2, color.RGBA{R: 110, G: 110, B: 110, A: 255})
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode placeholder: %w", err)
	}
	return nil
}

func drawCentered(img *image.RGBA, text string, y int, col color.Color) {
	dr := &font.Drawer{Dst: img, Src: image.NewUniform(col), Face: basicfont.Face7x13}
	width := dr.MeasureString(text).Ceil()
	x := (img.Bounds().Dx() - width) / 2
	if x < 4 {
		x = 4
	}
	dr.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	dr.DrawString(text)
}
