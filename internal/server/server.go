package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"refcommission/internal"
	"refcommission/internal/config"
	"refcommission/internal/pipeline"
	"refcommission/internal/util"
)

const (
	referralField    = "referral"
	transactionField = "transaction"
)

type Server struct {
	cfg       config.Config
	logger    *logrus.Logger
	processor *pipeline.ProcessingService
}

func New(cfg config.Config, logger *logrus.Logger, processor *pipeline.ProcessingService) *Server {
	return &Server{cfg: cfg, logger: logger, processor: processor}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/commissions", s.handleDownload).Methods(http.MethodPost)
	r.HandleFunc("/api/commissions/preview", s.handlePreview).Methods(http.MethodPost)
	return r
}

type previewResponse struct {
	RunID     string     `json:"run_id"`
	Headers   []string   `json:"headers"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"total_rows"`
	Matched   int        `json:"matched"`
	Unmatched int        `json:"unmatched"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	result, ok := s.calculate(w, r)
	if !ok {
		return
	}

	blob, err := pipeline.ExportToXLSX(result, s.cfg.OutputSheet)
	if err != nil {
		s.writeError(w, &pipeline.ProcessingError{Stage: "export", Err: err})
		return
	}

	w.Header().Set("Content-Type", config.XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", util.SanitizeFilename(s.cfg.OutputFilename)))
	w.Header().Set("X-Run-ID", result.RunID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	result, ok := s.calculate(w, r)
	if !ok {
		return
	}

	w.Header().Set("X-Run-ID", result.RunID)
	writeJSON(w, http.StatusOK, previewResponse{
		RunID:     result.RunID,
		Headers:   result.Headers,
		Rows:      pipeline.PreviewRows(result, s.cfg.PreviewRows),
		TotalRows: len(result.Rows),
		Matched:   result.Matched,
		Unmatched: result.Unmatched,
	})
}

func (s *Server) calculate(w http.ResponseWriter, r *http.Request) (internal.CommissionResult, bool) {
	limit := int64(s.cfg.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		s.writeError(w, &requestError{msg: fmt.Sprintf("invalid upload: %v", err)})
		return internal.CommissionResult{}, false
	}

	referral, err := readUpload(r, referralField)
	if err != nil {
		s.writeError(w, err)
		return internal.CommissionResult{}, false
	}
	transaction, err := readUpload(r, transactionField)
	if err != nil {
		s.writeError(w, err)
		return internal.CommissionResult{}, false
	}

	result, err := s.processor.Calculate(r.Context(), referral, transaction)
	if err != nil {
		s.writeError(w, err)
		return internal.CommissionResult{}, false
	}
	return result, true
}

func readUpload(r *http.Request, field string) (internal.SpreadsheetInput, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return internal.SpreadsheetInput{}, &requestError{msg: fmt.Sprintf("missing %s file", field)}
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return internal.SpreadsheetInput{}, &requestError{msg: fmt.Sprintf("read %s file: %v", field, err)}
	}
	return internal.SpreadsheetInput{Name: header.Filename, Content: content}, nil
}

type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var (
		reqErr    *requestError
		formatErr *pipeline.InputFormatError
		schemaErr *pipeline.SchemaError
	)
	switch {
	case errors.As(err, &reqErr), errors.As(err, &formatErr), errors.As(err, &schemaErr):
		status = http.StatusBadRequest
	}

	s.logger.WithError(err).WithField("status", status).Warn("commission request failed")
	writeJSON(w, status, map[string]string{"error": fmt.Sprintf("Error processing files: %v", err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
