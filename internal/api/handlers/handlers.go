package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/payroll-csv/internal/api/middleware"
	"github.com/dvloznov/payroll-csv/internal/extract"
	"github.com/dvloznov/payroll-csv/internal/logger"
	"github.com/dvloznov/payroll-csv/internal/metrics"
	"github.com/dvloznov/payroll-csv/internal/payroll"
	"github.com/dvloznov/payroll-csv/internal/pipeline"
	"github.com/dvloznov/payroll-csv/internal/render"
	"github.com/rs/zerolog"
)

// Config wires an ExtractHandler.
type Config struct {
	Options        extract.Options
	MaxUploadBytes int64
	Metrics        *metrics.Metrics
	// Reader defaults to pipeline.PDFReader.
	Reader pipeline.PageReader
}

// ExtractHandler serves the upload form and turns uploaded reports into CSV.
type ExtractHandler struct {
	opts     extract.Options
	maxBytes int64
	metrics  *metrics.Metrics
	reader   pipeline.PageReader
	log      zerolog.Logger
}

// NewExtractHandler creates a new extract handler.
func NewExtractHandler(cfg Config, log zerolog.Logger) *ExtractHandler {
	reader := cfg.Reader
	if reader == nil {
		reader = pipeline.PDFReader{}
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.New()
	}
	return &ExtractHandler{
		opts:     cfg.Options,
		maxBytes: cfg.MaxUploadBytes,
		metrics:  m,
		reader:   reader,
		log:      log,
	}
}

// Index handles GET /
func (h *ExtractHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.renderHTML(w, r, http.StatusOK, "index", indexView{MaxUploadMB: h.maxBytes >> 20})
}

// ExtractPage handles POST /extract and answers with an HTML result page.
func (h *ExtractHandler) ExtractPage(w http.ResponseWriter, r *http.Request) {
	state, status, err := h.process(w, r)
	if err != nil {
		h.renderHTML(w, r, status, "result", resultView{Error: userMessage(err)})
		return
	}

	h.renderHTML(w, r, http.StatusOK, "result", newResultView(state))
}

// ExtractAPI handles POST /api/extract?format=csv|summary|json
func (h *ExtractHandler) ExtractAPI(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "summary" && format != "json" {
		middleware.WriteError(w, http.StatusBadRequest, "format must be csv, summary or json")
		return
	}

	state, status, err := h.process(w, r)
	if err != nil {
		middleware.WriteError(w, status, userMessage(err))
		return
	}

	switch format {
	case "json":
		middleware.WriteJSON(w, http.StatusOK, newReportJSON(state))
	case "summary":
		writeCSV(w, render.SummaryFilename, state.SummaryCSV)
	default:
		writeCSV(w, render.DetailFilename, state.DetailCSV)
	}
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// process reads the upload and runs it through the pipeline. On failure it
// returns the HTTP status to answer with.
func (h *ExtractHandler) process(w http.ResponseWriter, r *http.Request) (*pipeline.PipelineState, int, error) {
	start := time.Now()
	log := h.requestLog(r)

	upload, err := readUpload(w, r, h.maxBytes)
	if err != nil {
		status := uploadStatus(err)
		log.Warn().Err(err).Int("status", status).Msg("Upload rejected")
		h.metrics.ObserveUpload(metrics.ResultRejected, time.Since(start))
		return nil, status, err
	}

	// Everything logged for this upload, pipeline included, names the file.
	log = logger.WithFields(log, map[string]interface{}{
		"filename": upload.Filename,
		"bytes":    len(upload.Data),
	})
	ctx := logger.WithContext(r.Context(), log)
	log.Info().Msg("Processing upload")

	state := &pipeline.PipelineState{Source: upload.Filename, PDFBytes: upload.Data}
	err = pipeline.NewExtractionPipeline(nil, h.reader, h.opts).Execute(ctx, state)
	switch {
	case err == nil:
		h.metrics.ObserveUpload(metrics.ResultSuccess, time.Since(start))
		h.metrics.ObserveRecords(state.Report.Strategy, state.Report.RecordCount())
		return state, http.StatusOK, nil
	case errors.Is(err, payroll.ErrNoRecords):
		log.Info().Msg("No payroll records found")
		h.metrics.ObserveUpload(metrics.ResultNoData, time.Since(start))
		return nil, http.StatusUnprocessableEntity, err
	case errors.Is(err, pipeline.ErrUnreadablePDF):
		log.Warn().Err(err).Msg("Could not read PDF")
		h.metrics.ObserveUpload(metrics.ResultRejected, time.Since(start))
		return nil, http.StatusUnprocessableEntity, err
	default:
		log.Error().Err(err).Msg("Extraction failed")
		h.metrics.ObserveUpload(metrics.ResultError, time.Since(start))
		return nil, http.StatusInternalServerError, err
	}
}

// requestLog prefers the request-scoped logger set by middleware.Logger.
func (h *ExtractHandler) requestLog(r *http.Request) zerolog.Logger {
	if l, ok := r.Context().Value(logger.LoggerKey).(zerolog.Logger); ok {
		return l
	}
	return h.log
}

func writeCSV(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
