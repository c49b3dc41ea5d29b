package web

// handlers_common.go holds shared request parsing and response helpers
// used across handlers.

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/dealview/dealview/internal/connector"
	"github.com/dealview/dealview/internal/core"
)

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes a request body, rejecting unknown fields so typos
// in definitions surface as 400s instead of silently computing nothing.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// ingestInput is the parsed, source-independent form of an ingestion
// request: rows plus everything needed to normalize and label them.
type ingestInput struct {
	Name     string
	Source   core.Source
	Rows     []core.RawRow
	Fields   []string
	Mappings []core.FieldMapping
}

// ingestBody is the JSON request shape for row-based ingestion.
type ingestBody struct {
	Name     string              `json:"name"`
	Rows     []core.RawRow       `json:"rows"`
	Mappings []core.FieldMapping `json:"mappings"`
}

// parseIngest extracts rows, field names and mappings from either a
// multipart CSV upload or a JSON rows body.
func (s *Server) parseIngest(r *http.Request) (*ingestInput, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		return s.parseCSVUpload(r)
	case mediaType == "application/json" || mediaType == "":
		return s.parseRowsBody(r)
	default:
		return nil, fmt.Errorf("unsupported content type %q", mediaType)
	}
}

func (s *Server) parseCSVUpload(r *http.Request) (*ingestInput, error) {
	if err := r.ParseMultipartForm(s.cfg.Ingest.MaxFileSize); err != nil {
		return nil, fmt.Errorf("parse multipart form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("missing file field: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.Ingest.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.cfg.Ingest.MaxFileSize {
		return nil, fmt.Errorf("file exceeds %d byte limit", s.cfg.Ingest.MaxFileSize)
	}

	adapter := connector.NewCSV()
	rows, err := adapter.ExtractRows(data)
	if err != nil {
		return nil, err
	}

	in := &ingestInput{
		Name:   r.FormValue("name"),
		Source: core.Source{Name: header.Filename, Type: core.SourceCSV},
		Rows:   rows,
		Fields: adapter.ExtractFieldNames(rows),
	}
	if in.Name == "" {
		in.Name = header.Filename
	}

	if raw := r.FormValue("mappings"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.Mappings); err != nil {
			return nil, fmt.Errorf("decode mappings: %w", err)
		}
	}
	return in, nil
}

func (s *Server) parseRowsBody(r *http.Request) (*ingestInput, error) {
	var body ingestBody
	if err := decodeJSON(r, &body); err != nil {
		return nil, err
	}

	adapter := connector.NewRows()
	in := &ingestInput{
		Name:     body.Name,
		Source:   core.Source{Name: body.Name, Type: core.SourceCRM},
		Rows:     body.Rows,
		Fields:   adapter.ExtractFieldNames(body.Rows),
		Mappings: body.Mappings,
	}
	if in.Name == "" {
		in.Name = "rows import"
	}
	return in, nil
}
