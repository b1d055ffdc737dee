package viewapi

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type stringerValue struct{ value string }

func (s stringerValue) String() string { return s.value }

func demoTemplate(t *testing.T) Template {
	t.Helper()
	return Template{
		Key:     "demo",
		Version: "v1",
		Title:   "Demo",
		Parameters: []Parameter{
			{Name: "site", Type: TypeString, Enum: []string{"ALL", "A"}, Default: DefaultValue("ALL")},
			{Name: "low", Type: TypeNumber, Default: DefaultValue(0)},
			{Name: "high", Type: TypeNumber, Default: DefaultValue(10)},
		},
		Columns:       []Column{{Name: "value", Type: "integer"}},
		OutputFormats: []Format{FormatJSON, FormatCSV},
		Check: func(params map[string]any) []ParameterError {
			if params["low"].(float64) > params["high"].(float64) {
				return []ParameterError{{Name: "low", Message: "must not exceed high"}}
			}
			return nil
		},
		Binder: func(env Environment) (Runner, error) {
			if env.Now == nil {
				t.Fatalf("expected now function")
			}
			return func(_ context.Context, req RunRequest) (RunResult, error) {
				if req.Template.Key != "demo" {
					t.Fatalf("unexpected template key: %s", req.Template.Key)
				}
				return RunResult{Rows: []map[string]any{{"value": 7, "site": req.Parameters["site"]}}}, nil
			}, nil
		},
	}
}

func TestHostTemplateRun(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	host, err := NewHostTemplate(demoTemplate(t))
	if err != nil {
		t.Fatalf("NewHostTemplate: %v", err)
	}
	if host.Slug() != "demo@v1" {
		t.Fatalf("unexpected slug: %s", host.Slug())
	}
	if !host.SupportsFormat(FormatCSV) || host.SupportsFormat("parquet") {
		t.Fatalf("unexpected format support")
	}
	if _, _, err := host.Run(context.Background(), nil, FormatJSON); err == nil {
		t.Fatalf("expected unbound error")
	}
	if err := host.Bind(Environment{Now: func() time.Time { return now }}); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	result, paramErrs, err := host.Run(context.Background(), map[string]any{"site": "A"}, FormatJSON)
	if err != nil || len(paramErrs) != 0 {
		t.Fatalf("Run: %v %+v", err, paramErrs)
	}
	if result.Format != FormatJSON {
		t.Fatalf("expected JSON format, got %s", result.Format)
	}
	if !result.GeneratedAt.Equal(now) || result.GeneratedAt.Location() != time.UTC {
		t.Fatalf("expected UTC generated timestamp, got %v", result.GeneratedAt)
	}
	if diff := cmp.Diff([]Column{{Name: "value", Type: "integer"}}, result.Schema); diff != "" {
		t.Fatalf("schema defaulted from template (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"site": "A", "low": 0.0, "high": 10.0}, result.Parameters); diff != "" {
		t.Fatalf("coerced parameters (-want +got):\n%s", diff)
	}
	if len(result.Rows) != 1 || result.Rows[0]["site"] != "A" {
		t.Fatalf("unexpected rows: %+v", result.Rows)
	}
	if _, _, err := host.Run(context.Background(), nil, "parquet"); err == nil {
		t.Fatalf("expected unsupported format error")
	}
	_, paramErrs, err = host.Run(context.Background(), map[string]any{"low": 11}, FormatJSON)
	if err != nil || len(paramErrs) != 1 || paramErrs[0].Name != "low" {
		t.Fatalf("expected cross-field error, got %v %+v", err, paramErrs)
	}
}

func TestValidateParametersDefaultsAndCoercion(t *testing.T) {
	host, err := NewHostTemplate(demoTemplate(t))
	if err != nil {
		t.Fatalf("NewHostTemplate: %v", err)
	}
	cleaned, errs := host.ValidateParameters(map[string]any{"LOW": "2.5", "high": json.Number("9")})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	want := map[string]any{"site": "ALL", "low": 2.5, "high": 9.0}
	if diff := cmp.Diff(want, cleaned); diff != "" {
		t.Fatalf("cleaned mismatch (-want +got):\n%s", diff)
	}
	cleaned, errs = host.ValidateParameters(map[string]any{"site": stringerValue{"A"}})
	if len(errs) != 0 || cleaned["site"] != "A" {
		t.Fatalf("stringer coercion failed: %+v %+v", cleaned, errs)
	}
}

func TestValidateParametersErrors(t *testing.T) {
	host, err := NewHostTemplate(demoTemplate(t))
	if err != nil {
		t.Fatalf("NewHostTemplate: %v", err)
	}
	_, errs := host.ValidateParameters(map[string]any{
		"site":  "B",
		"low":   "abc",
		"high":  nil,
		"extra": 1,
	})
	got := make(map[string]string, len(errs))
	names := make([]string, 0, len(errs))
	for _, e := range errs {
		got[e.Name] = e.Message
		names = append(names, e.Name)
	}
	if diff := cmp.Diff([]string{"extra", "high", "low", "site"}, names); diff != "" {
		t.Fatalf("error names (-want +got):\n%s", diff)
	}
	if !strings.Contains(got["site"], "one of: ALL, A") {
		t.Fatalf("unexpected enum message %q", got["site"])
	}
	if got["extra"] != "parameter not declared" {
		t.Fatalf("unexpected leftover message %q", got["extra"])
	}
}

func TestCoerceParameterTypes(t *testing.T) {
	cases := []struct {
		name    string
		param   Parameter
		raw     any
		want    any
		wantErr bool
	}{
		{"int from float", Parameter{Name: "n", Type: TypeInteger}, 3.0, 3, false},
		{"int fraction", Parameter{Name: "n", Type: TypeInteger}, 3.5, nil, true},
		{"int string", Parameter{Name: "n", Type: TypeInteger}, " 4 ", 4, false},
		{"int json number", Parameter{Name: "n", Type: TypeInteger}, json.Number("25"), 25, false},
		{"int json fraction", Parameter{Name: "n", Type: TypeInteger}, json.Number("2.5"), nil, true},
		{"number int64", Parameter{Name: "n", Type: TypeNumber}, int64(2), 2.0, false},
		{"number inf", Parameter{Name: "n", Type: TypeNumber}, "Inf", nil, true},
		{"bool string", Parameter{Name: "b", Type: TypeBoolean}, "true", true, false},
		{"bool wrong", Parameter{Name: "b", Type: TypeBoolean}, 1, nil, true},
		{"string wrong", Parameter{Name: "s", Type: TypeString}, 1, nil, true},
		{"unsupported", Parameter{Name: "x", Type: "timestamp"}, "x", nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := coerceParameter(tc.param, tc.raw)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if !tc.wantErr && got != tc.want {
				t.Fatalf("got %#v want %#v", got, tc.want)
			}
		})
	}
}

func TestNewHostTemplateValidation(t *testing.T) {
	mutate := []struct {
		name string
		fn   func(*Template)
	}{
		{"key", func(t *Template) { t.Key = " " }},
		{"version", func(t *Template) { t.Version = "" }},
		{"title", func(t *Template) { t.Title = "" }},
		{"columns", func(t *Template) { t.Columns = nil }},
		{"formats", func(t *Template) { t.OutputFormats = nil }},
		{"binder", func(t *Template) { t.Binder = nil }},
		{"duplicate parameter", func(t *Template) { t.Parameters = append(t.Parameters, Parameter{Name: "SITE", Type: TypeString}) }},
		{"parameter type", func(t *Template) { t.Parameters[0].Type = "date" }},
	}
	for _, tc := range mutate {
		t.Run(tc.name, func(t *testing.T) {
			tpl := demoTemplate(t)
			tc.fn(&tpl)
			if _, err := NewHostTemplate(tpl); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestBindErrors(t *testing.T) {
	tpl := demoTemplate(t)
	tpl.Binder = func(Environment) (Runner, error) { return nil, errors.New("bind failed") }
	host, err := NewHostTemplate(tpl)
	if err != nil {
		t.Fatalf("NewHostTemplate: %v", err)
	}
	if err := host.Bind(Environment{}); err == nil || err.Error() != "bind failed" {
		t.Fatalf("expected binder error, got %v", err)
	}
	tpl.Binder = func(Environment) (Runner, error) { return nil, nil }
	host, _ = NewHostTemplate(tpl)
	if err := host.Bind(Environment{}); err == nil {
		t.Fatalf("expected nil runner error")
	}
	var nilHost *HostTemplate
	if err := nilHost.Bind(Environment{}); err == nil {
		t.Fatalf("expected nil host error")
	}
}

func TestDescriptorIsCopy(t *testing.T) {
	host, err := NewHostTemplate(demoTemplate(t))
	if err != nil {
		t.Fatalf("NewHostTemplate: %v", err)
	}
	desc := host.Descriptor()
	desc.Parameters[0].Enum[0] = "mutated"
	if host.Descriptor().Parameters[0].Enum[0] != "ALL" {
		t.Fatalf("descriptor shares enum slice with template")
	}
	descs := []Descriptor{{Key: "b", Version: "v1"}, {Key: "a", Version: "v2"}, {Key: "a", Version: "v1"}}
	SortDescriptors(descs)
	if descs[0].Key != "a" || descs[0].Version != "v1" || descs[2].Key != "b" {
		t.Fatalf("unexpected order: %+v", descs)
	}
}
