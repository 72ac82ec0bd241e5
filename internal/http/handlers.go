package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fhm/internal/core"
	"fhm/internal/log"
)

// Response shapes. Decimal values cross the boundary as JSON numbers.
type (
	summaryResponse struct {
		CategoryTotals map[string]float64 `json:"category_totals"`
		SavingsRate    map[string]float64 `json:"savings_rate"`
		OverallBalance float64            `json:"overall_balance"`
	}

	monthResponse struct {
		Month   string             `json:"month"`
		Details map[string]float64 `json:"details"`
	}

	yoyResponse struct {
		Trends map[string]float64 `json:"trends"`
	}

	uploadRecord struct {
		ID        string    `json:"id"`
		Filename  string    `json:"filename"`
		Size      int64     `json:"size"`
		Status    string    `json:"status"`
		Error     string    `json:"error,omitempty"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	uploadsResponse struct {
		Uploads []uploadRecord `json:"uploads"`
	}
)

func newSummaryResponse(s core.Summary) summaryResponse {
	return summaryResponse{
		CategoryTotals: toFloats(s.CategoryTotals),
		SavingsRate:    toFloats(s.SavingsRate),
		OverallBalance: s.OverallBalance.InexactFloat64(),
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "Financial Health Manager"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.recorder.Ping(r.Context()); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Readiness check failed", log.FieldError, err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleSummarize accepts multipart CSV uploads, records each one
// through the ingest service and responds with the aggregate summary.
// Identical payload sets within the cache TTL are served from the
// summary cache without being re-recorded.
func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	uploads, ok := s.parseUploads(w, r)
	if !ok {
		return
	}

	cacheKey := uploadsDigest(uploads)
	if summary, ok := s.summaryCache.Get(cacheKey); ok {
		logger.InfoContext(ctx, "Summary served from cache", log.FieldFiles, len(uploads))
		respondJSON(w, http.StatusOK, newSummaryResponse(summary))
		return
	}

	structured := log.NewStructuredLogger(logger)

	var all []core.Transaction
	totalSkipped := 0
	for _, up := range uploads {
		txs, skips, err := core.ParseReader(up.Filename, bytes.NewReader(up.Data))
		if err != nil {
			s.metrics.uploadsTotal.WithLabelValues("failed").Inc()
			logger.WarnContext(ctx, "Upload failed to parse",
				log.FieldFilename, up.Filename, log.FieldError, err)
			if _, recErr := s.ingest.RecordFailedUpload(ctx, up.Filename, up.Data, err.Error()); recErr != nil {
				logger.ErrorContext(ctx, "Failed to record failed upload",
					log.FieldFilename, up.Filename, log.FieldError, recErr)
			}
			respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("parse %s: %v", up.Filename, err))
			return
		}

		// Storage failures degrade to a log line; the summary is
		// computed from the request payload either way.
		id, err := s.ingest.IngestUpload(ctx, up.Filename, up.Data, txs)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to record upload",
				log.FieldFilename, up.Filename, log.FieldError, err)
		} else {
			structured.LogUploadIngested(ctx, id, up.Filename, int64(len(up.Data)), len(txs), len(skips))
		}

		s.metrics.uploadsTotal.WithLabelValues("accepted").Inc()
		s.metrics.rowsParsedTotal.Add(float64(len(txs)))
		s.metrics.rowsSkippedTotal.Add(float64(len(skips)))
		all = append(all, txs...)
		totalSkipped += len(skips)
	}

	summary := core.Summarize(all)
	s.summaryCache.Set(cacheKey, summary)

	logger.InfoContext(ctx, "Summarize request served",
		log.FieldFiles, len(uploads), log.FieldRows, len(all), log.FieldSkipped, totalSkipped)
	respondJSON(w, http.StatusOK, newSummaryResponse(summary))
}

// handleMonthDetails responds with the per-category totals of one
// month, computed over the uploaded files. Nothing is recorded.
func (s *Server) handleMonthDetails(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonthPath(r.PathValue("month"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	uploads, ok := s.parseUploads(w, r)
	if !ok {
		return
	}
	txs, ok := s.parseTransactions(w, uploads)
	if !ok {
		return
	}

	details := core.MonthDetails(txs, month)
	respondJSON(w, http.StatusOK, monthResponse{Month: month, Details: toFloats(details)})
}

// handleYoY responds with the average expenses per calendar month
// across all years present in the uploaded files.
func (s *Server) handleYoY(w http.ResponseWriter, r *http.Request) {
	uploads, ok := s.parseUploads(w, r)
	if !ok {
		return
	}
	txs, ok := s.parseTransactions(w, uploads)
	if !ok {
		return
	}

	trends := core.YoYMonthlyExpenses(txs)
	respondJSON(w, http.StatusOK, yoyResponse{Trends: toFloats(trends)})
}

func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	limit := parseLimitParam(r, defaultUploadsLimit, maxUploadsLimit)

	uploads, err := s.recorder.ListUploads(r.Context(), limit)
	if err != nil {
		log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(),
			"Failed to list uploads", err, log.ComponentHTTP, log.OpList, log.NewFields())
		respondError(w, http.StatusInternalServerError, "failed to list uploads")
		return
	}

	records := make([]uploadRecord, 0, len(uploads))
	for _, u := range uploads {
		records = append(records, uploadRecord{
			ID:        u.ID,
			Filename:  u.Filename,
			Size:      u.Size,
			Status:    u.Status,
			Error:     u.Error,
			CreatedAt: u.CreatedAt,
			UpdatedAt: u.UpdatedAt,
		})
	}
	respondJSON(w, http.StatusOK, uploadsResponse{Uploads: records})
}

// parseUploads extracts the multipart file parts, writing the error
// response itself when the request is unusable. The bool reports
// whether the caller can proceed.
func (s *Server) parseUploads(w http.ResponseWriter, r *http.Request) ([]uploadFile, bool) {
	uploads, err := parseMultipartUploads(r, s.maxUploadBytes)
	if err != nil {
		var tooLarge *uploadTooLargeError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, tooLarge.Error())
			return nil, false
		}
		respondError(w, http.StatusBadRequest, "malformed multipart request")
		return nil, false
	}
	if len(uploads) == 0 {
		respondError(w, http.StatusBadRequest, `no files uploaded, send CSV files in the repeated "files" field`)
		return nil, false
	}
	return uploads, true
}

// parseTransactions parses every upload, writing the 422 response on
// the first file-level failure.
func (s *Server) parseTransactions(w http.ResponseWriter, uploads []uploadFile) ([]core.Transaction, bool) {
	var all []core.Transaction
	for _, up := range uploads {
		txs, _, err := core.ParseReader(up.Filename, bytes.NewReader(up.Data))
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("parse %s: %v", up.Filename, err))
			return nil, false
		}
		all = append(all, txs...)
	}
	return all, true
}
