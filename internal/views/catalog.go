// Package views registers the launch dataset views as viewapi templates and
// runs them with timing recorded to the metrics observer.
package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"launchdash/internal/launch"
	"launchdash/internal/metrics"
	"launchdash/pkg/viewapi"
)

const (
	KeySuccessBySite  = "success-by-site"
	KeyPayloadScatter = "payload-scatter"
	Version           = "v1"

	ParamSite         = "site"
	ParamIncludeEmpty = "include_empty"
	ParamPayloadMin   = "payload_min"
	ParamPayloadMax   = "payload_max"
	ParamLimit        = "limit"
)

// Catalog holds the bound view templates for one dataset.
type Catalog struct {
	templates []viewapi.HostTemplate
	bySlug    map[string]int
	observer  metrics.Observer
}

// NewCatalog builds and binds every view over ds. A nil observer discards
// timings; a nil now defaults to time.Now.
func NewCatalog(ds *launch.Dataset, obs metrics.Observer, now func() time.Time) (*Catalog, error) {
	if ds == nil {
		return nil, fmt.Errorf("views: dataset required")
	}
	if obs == nil {
		obs = metrics.Noop{}
	}
	if now == nil {
		now = time.Now
	}
	c := &Catalog{bySlug: make(map[string]int), observer: obs}
	env := viewapi.Environment{Now: now}
	for _, tpl := range []viewapi.Template{successBySite(ds), payloadScatter(ds)} {
		host, err := viewapi.NewHostTemplate(tpl)
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", tpl.Key, err)
		}
		if err := host.Bind(env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", host.Slug(), err)
		}
		c.bySlug[host.Slug()] = len(c.templates)
		c.templates = append(c.templates, host)
	}
	return c, nil
}

// Descriptors lists every view ordered by key and version.
func (c *Catalog) Descriptors() []viewapi.Descriptor {
	out := make([]viewapi.Descriptor, 0, len(c.templates))
	for _, t := range c.templates {
		out = append(out, t.Descriptor())
	}
	viewapi.SortDescriptors(out)
	return out
}

// Resolve finds a view by slug (key@version) or by bare key, which resolves
// to the current Version.
func (c *Catalog) Resolve(ref string) (viewapi.HostTemplate, bool) {
	ref = strings.TrimSpace(ref)
	if !strings.Contains(ref, "@") {
		ref += "@" + Version
	}
	idx, ok := c.bySlug[ref]
	if !ok {
		return viewapi.HostTemplate{}, false
	}
	return c.templates[idx], true
}

// Run resolves and executes a view, reporting the outcome as operation
// "view.<key>".
func (c *Catalog) Run(ctx context.Context, ref string, params map[string]any, format viewapi.Format) (viewapi.RunResult, []viewapi.ParameterError, error) {
	tpl, ok := c.Resolve(ref)
	if !ok {
		return viewapi.RunResult{}, nil, fmt.Errorf("view %q not found", ref)
	}
	start := time.Now()
	result, paramErrs, err := tpl.Run(ctx, params, format)
	c.observer.Observe(ctx, "view."+tpl.Template().Key, err == nil && len(paramErrs) == 0, time.Since(start))
	return result, paramErrs, err
}

func siteParameter(ds *launch.Dataset) viewapi.Parameter {
	return viewapi.Parameter{
		Name:        ParamSite,
		Type:        viewapi.TypeString,
		Description: "Launch site, or ALL for every site",
		Enum:        append([]string{launch.AllSites}, ds.Sites()...),
		Default:     viewapi.DefaultValue(launch.AllSites),
	}
}

func successBySite(ds *launch.Dataset) viewapi.Template {
	return viewapi.Template{
		Key:         KeySuccessBySite,
		Version:     Version,
		Title:       "Launch success by site",
		Description: "Successful launches per site, or failures and successes for a single site.",
		Parameters: []viewapi.Parameter{
			siteParameter(ds),
			{Name: ParamIncludeEmpty, Type: viewapi.TypeBoolean, Description: "Keep slices with a zero count", Default: viewapi.DefaultValue(true)},
		},
		Columns: []viewapi.Column{
			{Name: "label", Type: "string", Description: "Site name, or Failure/Success for a single site"},
			{Name: "count", Type: "integer"},
		},
		OutputFormats: []viewapi.Format{viewapi.FormatJSON, viewapi.FormatCSV},
		Binder: func(viewapi.Environment) (viewapi.Runner, error) {
			return func(_ context.Context, req viewapi.RunRequest) (viewapi.RunResult, error) {
				site, _ := req.Parameters[ParamSite].(string)
				includeEmpty, _ := req.Parameters[ParamIncludeEmpty].(bool)
				slices := ds.SuccessBySite(site)
				rows := make([]map[string]any, 0, len(slices))
				for _, s := range slices {
					if s.Count == 0 && !includeEmpty {
						continue
					}
					rows = append(rows, map[string]any{"label": s.Label, "count": s.Count})
				}
				return viewapi.RunResult{
					Rows: rows,
					Metadata: map[string]any{
						"title": launch.SuccessTitle(site),
						"site":  site,
					},
				}, nil
			}, nil
		},
	}
}

func payloadScatter(ds *launch.Dataset) viewapi.Template {
	bounds := ds.Bounds()
	return viewapi.Template{
		Key:         KeyPayloadScatter,
		Version:     Version,
		Title:       launch.ScatterTitle,
		Description: "Launches whose payload mass lies in the inclusive range, optionally restricted to one site.",
		Parameters: []viewapi.Parameter{
			siteParameter(ds),
			{Name: ParamPayloadMin, Type: viewapi.TypeNumber, Unit: "kg", Description: "Lower payload bound, inclusive", Default: viewapi.DefaultValue(bounds.Min)},
			{Name: ParamPayloadMax, Type: viewapi.TypeNumber, Unit: "kg", Description: "Upper payload bound, inclusive", Default: viewapi.DefaultValue(bounds.Max)},
			{Name: ParamLimit, Type: viewapi.TypeInteger, Description: "Maximum rows returned; 0 returns every match", Default: viewapi.DefaultValue(0)},
		},
		Columns: []viewapi.Column{
			{Name: "launch_site", Type: "string"},
			{Name: "payload_mass_kg", Type: "number", Unit: "kg"},
			{Name: "booster_version_category", Type: "string"},
			{Name: "class", Type: "integer", Description: "1 for success, 0 for failure"},
		},
		OutputFormats: []viewapi.Format{viewapi.FormatJSON, viewapi.FormatCSV},
		Check:         scatterCheck(bounds),
		Binder: func(viewapi.Environment) (viewapi.Runner, error) {
			return func(_ context.Context, req viewapi.RunRequest) (viewapi.RunResult, error) {
				site, _ := req.Parameters[ParamSite].(string)
				low, _ := req.Parameters[ParamPayloadMin].(float64)
				high, _ := req.Parameters[ParamPayloadMax].(float64)
				limit, _ := req.Parameters[ParamLimit].(int)
				points := ds.PayloadScatter(launch.PayloadRange{Low: low, High: high}, site)
				matched := len(points)
				if limit > 0 && limit < matched {
					points = points[:limit]
				}
				rows := make([]map[string]any, 0, len(points))
				for _, r := range points {
					rows = append(rows, map[string]any{
						"launch_site":              r.Site,
						"payload_mass_kg":          r.PayloadMassKg,
						"booster_version_category": r.BoosterCategory,
						"class":                    r.Class(),
					})
				}
				return viewapi.RunResult{
					Rows: rows,
					Metadata: map[string]any{
						"title":       launch.ScatterTitle,
						"site":        site,
						"payload_min": low,
						"payload_max": high,
						"matched":     matched,
					},
				}, nil
			}, nil
		},
	}
}

func scatterCheck(bounds launch.PayloadBounds) viewapi.Check {
	return func(params map[string]any) []viewapi.ParameterError {
		low, _ := params[ParamPayloadMin].(float64)
		high, _ := params[ParamPayloadMax].(float64)
		var errs []viewapi.ParameterError
		if limit, _ := params[ParamLimit].(int); limit < 0 {
			errs = append(errs, viewapi.ParameterError{Name: ParamLimit, Message: "must not be negative"})
		}
		if !bounds.Contains(low) {
			errs = append(errs, viewapi.ParameterError{Name: ParamPayloadMin, Message: boundsMessage(bounds)})
		}
		if !bounds.Contains(high) {
			errs = append(errs, viewapi.ParameterError{Name: ParamPayloadMax, Message: boundsMessage(bounds)})
		}
		if len(errs) == 0 && low > high {
			errs = append(errs, viewapi.ParameterError{Name: ParamPayloadMin, Message: "must not exceed payload_max"})
		}
		return errs
	}
}

func boundsMessage(b launch.PayloadBounds) string {
	return fmt.Sprintf("must be within [%g, %g]", b.Min, b.Max)
}
