// Package viewapi describes parameterised, versioned views over the launch
// dataset. Hosts wrap a Template in a HostTemplate to validate parameters and
// run the bound query.
package viewapi

import (
	"context"
	"encoding/json"
	"time"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Parameter types understood by the validator.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
)

type Parameter struct {
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	Unit        string          `json:"unit,omitempty"`
	Enum        []string        `json:"enum,omitempty"`
	Default     json.RawMessage `json:"default,omitempty"`
}

type Column struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Unit        string `json:"unit,omitempty"`
	Description string `json:"description,omitempty"`
}

// Environment carries runtime dependencies handed to a Binder.
type Environment struct {
	Now func() time.Time
}

type Template struct {
	Key           string
	Version       string
	Title         string
	Description   string
	Parameters    []Parameter
	Columns       []Column
	OutputFormats []Format
	// Check runs after per-parameter coercion succeeded and reports
	// constraints spanning several parameters.
	Check  Check
	Binder Binder
}

type Descriptor struct {
	Key           string      `json:"key"`
	Version       string      `json:"version"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Parameters    []Parameter `json:"parameters"`
	Columns       []Column    `json:"columns"`
	OutputFormats []Format    `json:"output_formats"`
	Slug          string      `json:"slug"`
}

type RunRequest struct {
	Template   Descriptor
	Parameters map[string]any
}

type RunResult struct {
	// Parameters holds the coerced values the view ran with.
	Parameters  map[string]any   `json:"-"`
	Schema      []Column         `json:"schema"`
	Rows        []map[string]any `json:"rows"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
	Format      Format           `json:"format"`
}

// ParameterError describes a single invalid or undeclared parameter.
type ParameterError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

type Runner func(context.Context, RunRequest) (RunResult, error)

type Binder func(Environment) (Runner, error)

type Check func(params map[string]any) []ParameterError
