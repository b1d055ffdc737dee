// Package dashboard renders the launch records page: a site selector, a
// payload range slider, a success pie and a payload scatter. Every request
// recomputes both views from the immutable dataset.
package dashboard

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"launchdash/internal/launch"
	"launchdash/internal/logging"
	"launchdash/internal/metrics"
)

// PageTitle heads the dashboard.
const PageTitle = "SpaceX Launch Records Dashboard"

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.New("dashboard.html.tmpl").
	Funcs(template.FuncMap{"kg": formatKg}).
	ParseFS(templateFS, "templates/dashboard.html.tmpl"))

// Options configures a Handler.
type Options struct {
	// SliderStep is the payload slider granularity in kilograms.
	SliderStep float64
	Observer   metrics.Observer
	Logger     *slog.Logger
}

// Handler serves the dashboard page and its PNG chart renditions.
type Handler struct {
	ds       *launch.Dataset
	step     float64
	observer metrics.Observer
	logger   *slog.Logger
}

// NewHandler builds a dashboard over ds.
func NewHandler(ds *launch.Dataset, opts Options) (*Handler, error) {
	if ds == nil {
		return nil, fmt.Errorf("dashboard: dataset required")
	}
	if opts.SliderStep <= 0 {
		return nil, fmt.Errorf("dashboard: slider step must be positive, got %g", opts.SliderStep)
	}
	h := &Handler{ds: ds, step: opts.SliderStep, observer: opts.Observer, logger: opts.Logger}
	if h.observer == nil {
		h.observer = metrics.Noop{}
	}
	if h.logger == nil {
		h.logger = logging.New("dashboard")
	}
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/":
		h.servePage(w, r)
	case "/charts/success.png":
		h.serveSuccessPNG(w, r)
	case "/charts/payload.png":
		h.servePayloadPNG(w, r)
	default:
		http.NotFound(w, r)
	}
}

type pageData struct {
	Title          string
	EChartsURL     string
	Sites          []SiteOption
	Bounds         launch.PayloadBounds
	Step           float64
	Marks          []Mark
	State          State
	SuccessPNG     string
	ScatterPNG     string
	SuccessTitle   string
	ScatterTitle   string
	SuccessOptions template.JS
	ScatterOptions template.JS
	HasSuccess     bool
	HasScatter     bool
	RecordCount    int
}

// Render writes the full page for st.
func (h *Handler) Render(st State) ([]byte, error) {
	slices := h.ds.SuccessBySite(st.Site)
	points := h.ds.PayloadScatter(st.Range, st.Site)

	successJS, err := optionJSON(SuccessFigure(slices, st.Site))
	if err != nil {
		return nil, err
	}
	scatterJS, err := optionJSON(ScatterFigure(points, h.ds.BoosterCategories()))
	if err != nil {
		return nil, err
	}
	data := pageData{
		Title:          PageTitle,
		EChartsURL:     EChartsURL,
		Sites:          SiteOptions(h.ds, st.Site),
		Bounds:         h.ds.Bounds(),
		Step:           h.step,
		Marks:          SliderMarks(h.ds.Bounds()),
		State:          st,
		SuccessPNG:     "/charts/success.png?" + st.Query().Encode(),
		ScatterPNG:     "/charts/payload.png?" + st.Query().Encode(),
		SuccessTitle:   launch.SuccessTitle(st.Site),
		ScatterTitle:   launch.ScatterTitle,
		SuccessOptions: successJS,
		ScatterOptions: scatterJS,
		HasSuccess:     hasCounts(slices),
		HasScatter:     len(points) > 0,
		RecordCount:    h.ds.Len(),
	}
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render dashboard: %w", err)
	}
	return buf.Bytes(), nil
}

func hasCounts(slices []launch.Slice) bool {
	for _, s := range slices {
		if s.Count > 0 {
			return true
		}
	}
	return false
}

func (h *Handler) servePage(w http.ResponseWriter, r *http.Request) {
	st := ParseState(r.URL.Query(), h.ds)
	start := time.Now()
	body, err := h.Render(st)
	h.observer.Observe(r.Context(), "dashboard.render", err == nil, time.Since(start))
	if err != nil {
		h.logger.Error("render failed", "err", err, "site", st.Site)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

func (h *Handler) serveSuccessPNG(w http.ResponseWriter, r *http.Request) {
	st := ParseState(r.URL.Query(), h.ds)
	h.servePNG(w, r, "dashboard.success_png", func(buf *bytes.Buffer) error {
		return RenderSuccessPNG(buf, h.ds.SuccessBySite(st.Site), st.Site)
	})
}

func (h *Handler) servePayloadPNG(w http.ResponseWriter, r *http.Request) {
	st := ParseState(r.URL.Query(), h.ds)
	h.servePNG(w, r, "dashboard.payload_png", func(buf *bytes.Buffer) error {
		return RenderScatterPNG(buf, h.ds.PayloadScatter(st.Range, st.Site), h.ds.BoosterCategories(), st.Range)
	})
}

func (h *Handler) servePNG(w http.ResponseWriter, r *http.Request, op string, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	start := time.Now()
	err := render(&buf)
	h.observer.Observe(r.Context(), op, err == nil, time.Since(start))
	if err != nil {
		h.logger.Error("chart render failed", "op", op, "err", err)
		http.Error(w, "chart render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}
