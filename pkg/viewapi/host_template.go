package viewapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

// HostTemplate pairs a Template with its bound runner.
type HostTemplate struct {
	tpl     Template
	runtime Runner
	now     func() time.Time
}

// NewHostTemplate validates tpl structurally. The result has no runner until
// Bind is called.
func NewHostTemplate(tpl Template) (HostTemplate, error) {
	if err := validateTemplate(tpl); err != nil {
		return HostTemplate{}, err
	}
	return HostTemplate{tpl: cloneTemplate(tpl)}, nil
}

// Template returns a copy of the template definition.
func (h HostTemplate) Template() Template { return cloneTemplate(h.tpl) }

func (h HostTemplate) Descriptor() Descriptor {
	return Descriptor{
		Key:           h.tpl.Key,
		Version:       h.tpl.Version,
		Title:         h.tpl.Title,
		Description:   h.tpl.Description,
		Parameters:    cloneParameters(h.tpl.Parameters),
		Columns:       cloneColumns(h.tpl.Columns),
		OutputFormats: slices.Clone(h.tpl.OutputFormats),
		Slug:          h.Slug(),
	}
}

// Slug returns key@version.
func (h HostTemplate) Slug() string {
	return fmt.Sprintf("%s@%s", strings.TrimSpace(h.tpl.Key), strings.TrimSpace(h.tpl.Version))
}

func (h HostTemplate) SupportsFormat(format Format) bool {
	return slices.Contains(h.tpl.OutputFormats, format)
}

// ValidateParameters coerces supplied values against the declared parameters,
// applies defaults and then runs the template's cross-parameter Check.
func (h HostTemplate) ValidateParameters(params map[string]any) (map[string]any, []ParameterError) {
	cleaned, errs := validateParameters(h.tpl.Parameters, params)
	if len(errs) == 0 && h.tpl.Check != nil {
		errs = h.tpl.Check(cleaned)
		sortErrors(errs)
	}
	return cleaned, errs
}

// Bind resolves the template's runner against env.
func (h *HostTemplate) Bind(env Environment) error {
	if h == nil {
		return errors.New("viewapi: host template nil")
	}
	if h.tpl.Binder == nil {
		return errors.New("viewapi: template binder missing")
	}
	runner, err := h.tpl.Binder(env)
	if err != nil {
		return err
	}
	if runner == nil {
		return errors.New("viewapi: template binder returned nil runner")
	}
	h.runtime = runner
	h.now = env.Now
	return nil
}

// Run validates params and executes the bound runner. Parameter problems are
// returned as the second value with a nil error.
func (h HostTemplate) Run(ctx context.Context, params map[string]any, format Format) (RunResult, []ParameterError, error) {
	if h.runtime == nil {
		return RunResult{}, nil, errors.New("viewapi: template not bound")
	}
	if !h.SupportsFormat(format) {
		return RunResult{}, nil, fmt.Errorf("viewapi: format %q not supported by %s", format, h.Slug())
	}
	cleaned, errs := h.ValidateParameters(params)
	if len(errs) > 0 {
		return RunResult{}, errs, nil
	}
	result, err := h.runtime(ctx, RunRequest{Template: h.Descriptor(), Parameters: cleaned})
	if err != nil {
		return RunResult{}, nil, err
	}
	if len(result.Schema) == 0 {
		result.Schema = cloneColumns(h.tpl.Columns)
	}
	if result.Rows == nil {
		result.Rows = []map[string]any{}
	}
	if result.GeneratedAt.IsZero() {
		now := time.Now
		if h.now != nil {
			now = h.now
		}
		result.GeneratedAt = now()
	}
	result.GeneratedAt = result.GeneratedAt.UTC()
	result.Format = format
	result.Parameters = cleaned
	return result, nil, nil
}

// SortDescriptors orders descriptors by key then version.
func SortDescriptors(descriptors []Descriptor) {
	sort.Slice(descriptors, func(i, j int) bool {
		if descriptors[i].Key == descriptors[j].Key {
			return descriptors[i].Version < descriptors[j].Version
		}
		return descriptors[i].Key < descriptors[j].Key
	})
}

// DefaultValue encodes v for use as Parameter.Default.
func DefaultValue(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("viewapi: default value %v: %v", v, err))
	}
	return raw
}

func validateTemplate(tpl Template) error {
	if strings.TrimSpace(tpl.Key) == "" {
		return errors.New("viewapi: view key required")
	}
	if strings.TrimSpace(tpl.Version) == "" {
		return errors.New("viewapi: view version required")
	}
	if strings.TrimSpace(tpl.Title) == "" {
		return errors.New("viewapi: view title required")
	}
	if len(tpl.Columns) == 0 {
		return errors.New("viewapi: view requires at least one column")
	}
	if len(tpl.OutputFormats) == 0 {
		return errors.New("viewapi: view must declare output formats")
	}
	if tpl.Binder == nil {
		return errors.New("viewapi: view binder required")
	}
	seen := make(map[string]struct{}, len(tpl.Parameters))
	for _, p := range tpl.Parameters {
		key := strings.ToLower(p.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("viewapi: duplicate parameter %q", p.Name)
		}
		seen[key] = struct{}{}
		switch p.Type {
		case TypeString, TypeInteger, TypeNumber, TypeBoolean:
		default:
			return fmt.Errorf("viewapi: parameter %s has unsupported type %q", p.Name, p.Type)
		}
	}
	return nil
}

func validateParameters(definitions []Parameter, supplied map[string]any) (map[string]any, []ParameterError) {
	cleaned := make(map[string]any)
	var errs []ParameterError
	provided := make(map[string]string, len(supplied))
	for k := range supplied {
		provided[strings.ToLower(k)] = k
	}
	for _, param := range definitions {
		key := strings.ToLower(param.Name)
		val, ok := findParamValue(param.Name, supplied)
		if !ok {
			if len(param.Default) > 0 {
				coerced, err := coerceDefaultParameter(param)
				if err != nil {
					errs = append(errs, ParameterError{Name: param.Name, Message: err.Error()})
					continue
				}
				cleaned[param.Name] = coerced
			}
			continue
		}
		delete(provided, key)
		coerced, err := coerceParameter(param, val)
		if err != nil {
			errs = append(errs, ParameterError{Name: param.Name, Message: err.Error()})
			continue
		}
		cleaned[param.Name] = coerced
	}
	for _, original := range provided {
		errs = append(errs, ParameterError{Name: original, Message: "parameter not declared"})
	}
	sortErrors(errs)
	return cleaned, errs
}

func sortErrors(errs []ParameterError) {
	sort.Slice(errs, func(i, j int) bool { return errs[i].Name < errs[j].Name })
}

func coerceDefaultParameter(param Parameter) (any, error) {
	var raw any
	if err := json.Unmarshal(param.Default, &raw); err != nil {
		return nil, fmt.Errorf("parameter %s default is invalid JSON: %w", param.Name, err)
	}
	return coerceParameter(param, raw)
}

func findParamValue(name string, supplied map[string]any) (any, bool) {
	if supplied == nil {
		return nil, false
	}
	if val, ok := supplied[name]; ok {
		return val, true
	}
	for k, v := range supplied {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

func coerceParameter(param Parameter, raw any) (any, error) {
	if raw == nil {
		return nil, fmt.Errorf("parameter %s cannot be null", param.Name)
	}
	switch param.Type {
	case TypeString:
		var val string
		switch v := raw.(type) {
		case string:
			val = v
		case fmt.Stringer:
			val = v.String()
		default:
			return nil, fmt.Errorf("parameter %s expects string", param.Name)
		}
		if len(param.Enum) > 0 && !slices.Contains(param.Enum, val) {
			return nil, enumError(param.Enum)
		}
		return val, nil
	case TypeInteger:
		switch v := raw.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case json.Number:
			parsed, err := strconv.Atoi(v.String())
			if err != nil {
				return nil, fmt.Errorf("parameter %s expects integer", param.Name)
			}
			return parsed, nil
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("parameter %s expects integer", param.Name)
			}
			return int(v), nil
		case string:
			parsed, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("parameter %s expects integer", param.Name)
			}
			return parsed, nil
		default:
			return nil, fmt.Errorf("parameter %s expects integer", param.Name)
		}
	case TypeNumber:
		var val float64
		switch v := raw.(type) {
		case float32:
			val = float64(v)
		case float64:
			val = v
		case int:
			val = float64(v)
		case int64:
			val = float64(v)
		case json.Number:
			parsed, err := v.Float64()
			if err != nil {
				return nil, fmt.Errorf("parameter %s expects number", param.Name)
			}
			val = parsed
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("parameter %s expects number", param.Name)
			}
			val = parsed
		default:
			return nil, fmt.Errorf("parameter %s expects number", param.Name)
		}
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("parameter %s must be finite", param.Name)
		}
		return val, nil
	case TypeBoolean:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("parameter %s expects boolean", param.Name)
			}
			return parsed, nil
		default:
			return nil, fmt.Errorf("parameter %s expects boolean", param.Name)
		}
	default:
		return nil, fmt.Errorf("unsupported parameter type %q", param.Type)
	}
}

func enumError(options []string) error {
	if len(options) == 0 {
		return errors.New("invalid enumeration")
	}
	return fmt.Errorf("value must be one of: %s", strings.Join(options, ", "))
}

func cloneTemplate(t Template) Template {
	cloned := t
	cloned.Parameters = cloneParameters(t.Parameters)
	cloned.Columns = cloneColumns(t.Columns)
	cloned.OutputFormats = slices.Clone(t.OutputFormats)
	return cloned
}

func cloneParameters(params []Parameter) []Parameter {
	if len(params) == 0 {
		return nil
	}
	cloned := make([]Parameter, len(params))
	copy(cloned, params)
	for i := range cloned {
		if len(cloned[i].Default) > 0 {
			cloned[i].Default = append(json.RawMessage(nil), cloned[i].Default...)
		}
		if len(cloned[i].Enum) > 0 {
			cloned[i].Enum = append([]string(nil), cloned[i].Enum...)
		}
	}
	return cloned
}

func cloneColumns(columns []Column) []Column {
	if len(columns) == 0 {
		return nil
	}
	return slices.Clone(columns)
}
