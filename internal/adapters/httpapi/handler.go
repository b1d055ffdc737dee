// Package httpapi exposes the view catalog as a JSON/CSV HTTP API.
package httpapi

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"launchdash/pkg/viewapi"
)

// Prefix is the path every route of Handler lives under.
const Prefix = "/api/v1/views"

// Catalog exposes view templates to the handler.
type Catalog interface {
	Descriptors() []viewapi.Descriptor
	Resolve(ref string) (viewapi.HostTemplate, bool)
	Run(ctx context.Context, ref string, params map[string]any, format viewapi.Format) (viewapi.RunResult, []viewapi.ParameterError, error)
}

// Handler serves view listing, validation and runs.
type Handler struct {
	Catalog Catalog
}

// NewHandler constructs a view HTTP handler.
func NewHandler(c Catalog) *Handler {
	return &Handler{Catalog: c}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Catalog == nil {
		writeError(w, http.StatusInternalServerError, "view catalog not configured")
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == Prefix:
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"views": h.Catalog.Descriptors()})
	case strings.HasPrefix(path, Prefix+"/"):
		h.handleView(w, r, strings.TrimPrefix(path, Prefix+"/"))
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request, remainder string) {
	segments := strings.Split(remainder, "/")
	if len(segments) > 2 {
		writeError(w, http.StatusNotFound, "view endpoint not found")
		return
	}
	template, ok := h.Catalog.Resolve(segments[0])
	if !ok {
		writeError(w, http.StatusNotFound, "view not found")
		return
	}

	if len(segments) == 1 {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"view": template.Descriptor()})
		return
	}

	switch segments[1] {
	case "validate":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleValidate(w, r, template)
	case "run":
		if r.Method != http.MethodPost && r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleRun(w, r, template)
	default:
		writeError(w, http.StatusNotFound, "view endpoint not found")
	}
}

type parametersRequest struct {
	Parameters map[string]any `json:"parameters"`
}

type validationResponse struct {
	View       viewapi.Descriptor       `json:"view"`
	Valid      bool                     `json:"valid"`
	Parameters map[string]any           `json:"parameters"`
	Errors     []viewapi.ParameterError `json:"errors,omitempty"`
}

type runResponse struct {
	View       viewapi.Descriptor `json:"view"`
	Parameters map[string]any     `json:"parameters"`
	Result     viewapi.RunResult  `json:"result"`
}

// requestParameters reads parameters from the JSON body of a POST or from the
// query string of a GET. The format query key is reserved for negotiation.
func requestParameters(r *http.Request) (map[string]any, error) {
	if r.Method == http.MethodGet {
		params := make(map[string]any)
		for key, values := range r.URL.Query() {
			if key == "format" || len(values) == 0 {
				continue
			}
			params[key] = values[len(values)-1]
		}
		return params, nil
	}
	var req parametersRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return req.Parameters, nil
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request, template viewapi.HostTemplate) {
	params, err := requestParameters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid validation request payload")
		return
	}
	cleaned, errs := template.ValidateParameters(params)
	writeJSON(w, http.StatusOK, validationResponse{
		View:       template.Descriptor(),
		Valid:      len(errs) == 0,
		Parameters: cleaned,
		Errors:     errs,
	})
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request, template viewapi.HostTemplate) {
	params, err := requestParameters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run request payload")
		return
	}

	format := negotiateFormat(r, template)
	if format == "" {
		writeError(w, http.StatusNotAcceptable, "requested format not supported")
		return
	}

	result, paramErrs, err := h.Catalog.Run(r.Context(), template.Slug(), params, format)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(paramErrs) > 0 {
		writeJSON(w, http.StatusBadRequest, validationResponse{
			View:       template.Descriptor(),
			Valid:      false,
			Parameters: params,
			Errors:     paramErrs,
		})
		return
	}

	switch format {
	case viewapi.FormatCSV:
		streamCSV(w, template.Descriptor(), result)
	default:
		writeJSON(w, http.StatusOK, runResponse{
			View:       template.Descriptor(),
			Parameters: result.Parameters,
			Result:     result,
		})
	}
}

func negotiateFormat(r *http.Request, template viewapi.HostTemplate) viewapi.Format {
	wanted := viewapi.Format(strings.ToLower(r.URL.Query().Get("format")))
	if wanted == "" {
		if strings.Contains(r.Header.Get("Accept"), "text/csv") {
			wanted = viewapi.FormatCSV
		} else {
			wanted = viewapi.FormatJSON
		}
	}
	if !template.SupportsFormat(wanted) {
		return ""
	}
	return wanted
}

func streamCSV(w http.ResponseWriter, descriptor viewapi.Descriptor, result viewapi.RunResult) {
	filename := fmt.Sprintf("%s-%s.csv", descriptor.Key, result.GeneratedAt.UTC().Format("20060102T150405Z"))

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	writer := csv.NewWriter(w)
	defer writer.Flush()

	columns := result.Schema
	if len(columns) == 0 {
		columns = descriptor.Columns
	}

	headers := make([]string, len(columns))
	for i, column := range columns {
		headers[i] = column.Name
	}
	if err := writer.Write(headers); err != nil {
		return
	}

	for _, row := range result.Rows {
		record := make([]string, len(columns))
		for i, column := range columns {
			record[i] = formatValue(row[column.Name])
		}
		if err := writer.Write(record); err != nil {
			return
		}
	}
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
