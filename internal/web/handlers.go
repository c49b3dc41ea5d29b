package web

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dealview/dealview/internal/core"
	"github.com/dealview/dealview/internal/funnel"
	"github.com/dealview/dealview/internal/logging"
	"github.com/dealview/dealview/internal/metrics"
	"github.com/dealview/dealview/internal/store"
)

// createResponse is returned after an ingestion: the stored dataset's
// summary plus everything the caller needs to improve its mappings.
type createResponse struct {
	Dataset        store.Summary         `json:"dataset"`
	UnmappedFields []string              `json:"unmappedFields"`
	Errors         []core.TransformError `json:"transformErrors"`
	Validation     core.ValidationReport `json:"validation"`
}

// handleCreateDataset ingests a CSV upload or a JSON rows body,
// normalizes it (detecting mappings when none are supplied) and stores
// the resulting dataset.
func (s *Server) handleCreateDataset(w http.ResponseWriter, r *http.Request) {
	in, err := s.parseIngest(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if len(in.Rows) > s.cfg.Ingest.MaxRows {
		s.respondError(w, r,
			fmt.Errorf("dataset has %d rows, limit is %d", len(in.Rows), s.cfg.Ingest.MaxRows),
			http.StatusRequestEntityTooLarge)
		return
	}

	if len(in.Mappings) == 0 {
		detection := core.DetectSchema(in.Rows, in.Fields)
		in.Mappings = core.MappingsFromSuggestions(detection.Suggestions)
	}

	result := core.Normalize(in.Rows, in.Mappings, in.Source)

	now := time.Now().UTC()
	ds := &store.Dataset{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Source:      in.Source,
		FieldNames:  in.Fields,
		Records:     result.Records,
		StageEvents: result.StageEvents,
		Actors:      result.Actors,
		Unmapped:    result.UnmappedFields,
		Errors:      result.Errors,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Save(r.Context(), ds); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	logging.FromContext(r.Context()).Info("dataset ingested",
		"dataset_id", ds.ID,
		"source", ds.Source.Name,
		"records", len(ds.Records),
		"transform_errors", len(ds.Errors),
	)

	respondJSON(w, http.StatusCreated, createResponse{
		Dataset:        ds.Summarize(),
		UnmappedFields: result.UnmappedFields,
		Errors:         result.Errors,
		Validation:     core.Validate(result),
	})
}

// handleDetectSchema runs field-type inference and mapping suggestion
// without persisting anything.
func (s *Server) handleDetectSchema(w http.ResponseWriter, r *http.Request) {
	in, err := s.parseIngest(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	respondJSON(w, http.StatusOK, core.DetectSchema(in.Rows, in.Fields))
}

// handlePreview normalizes a bounded sample so the caller can inspect
// what a full ingestion would produce.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	in, err := s.parseIngest(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	limit := parseIntParam(r, "limit", s.cfg.Ingest.PreviewRows)
	result := core.Preview(in.Rows, in.Mappings, in.Source, limit)

	respondJSON(w, http.StatusOK, map[string]any{
		"result":     result,
		"validation": core.Validate(result),
	})
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.List(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"datasets": summaries})
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := s.loadDataset(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, ds)
}

func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "datasetID")
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// handleValidation re-validates a stored dataset.
func (s *Server) handleValidation(w http.ResponseWriter, r *http.Request) {
	ds, err := s.loadDataset(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	report := core.Validate(core.NormalizeResult{
		Records:        ds.Records,
		StageEvents:    ds.StageEvents,
		Actors:         ds.Actors,
		UnmappedFields: ds.Unmapped,
		Errors:         ds.Errors,
	})
	respondJSON(w, http.StatusOK, report)
}

// metricsRequest asks for a batch of metric computations over one
// period, optionally compared to the previous one.
type metricsRequest struct {
	Definitions []metrics.MetricDefinition `json:"definitions"`
	Period      metrics.PeriodType         `json:"period"`
	Reference   *time.Time                 `json:"reference,omitempty"`
	Compare     bool                       `json:"compare,omitempty"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	ds, err := s.loadDataset(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	var req metricsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if len(req.Definitions) == 0 {
		s.respondError(w, r, fmt.Errorf("no metric definitions supplied"), http.StatusBadRequest)
		return
	}
	if req.Period == "" {
		req.Period = metrics.PeriodMonth
	}

	ref := time.Now().UTC()
	if req.Reference != nil {
		ref = *req.Reference
	}
	period := metrics.NewPeriod(req.Period, ref)

	var prev *metrics.Period
	if req.Compare {
		p := metrics.PreviousPeriod(period)
		prev = &p
	}

	engine := metrics.New(ds.Records)
	respondJSON(w, http.StatusOK, map[string]any{
		"period": period,
		"values": engine.ComputeMany(req.Definitions, period, prev),
	})
}

// handleFunnel computes funnel metrics. Stages come from the "stages"
// query parameter (comma-separated, in pipeline order) or are inferred
// from the records' statuses in first-seen order. An optional "period"
// parameter restricts records by creation date.
func (s *Server) handleFunnel(w http.ResponseWriter, r *http.Request) {
	ds, err := s.loadDataset(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	var stages []funnel.Stage
	if raw := r.URL.Query().Get("stages"); raw != "" {
		for i, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				stages = append(stages, funnel.Stage{Name: name, Order: i})
			}
		}
	}
	if len(stages) == 0 {
		stages = funnel.InferStages(ds.Records)
	}

	var period *metrics.Period
	if pt := r.URL.Query().Get("period"); pt != "" {
		p := metrics.NewPeriod(metrics.PeriodType(pt), time.Now().UTC())
		period = &p
	}

	engine := funnel.New(ds.Records, ds.StageEvents, stages)
	respondJSON(w, http.StatusOK, map[string]any{
		"funnel":      engine.Compute(period),
		"transitions": engine.Transitions(),
		"stages":      stages,
	})
}

func (s *Server) loadDataset(r *http.Request) (*store.Dataset, error) {
	id := chi.URLParam(r, "datasetID")
	if id == "" {
		return nil, fmt.Errorf("missing dataset id")
	}
	return s.store.Get(r.Context(), id)
}
