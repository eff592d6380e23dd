package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driving"
)

// maxBodySize bounds request bodies
const maxBodySize = 1 << 20

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// SaveErrorResponse is returned when a save fails; it hands the draft back
// @Description Failed save with the unsaved draft
type SaveErrorResponse struct {
	Error string               `json:"error" example:"handover could not be saved"`
	Draft domain.HandoverDraft `json:"draft"`
	State domain.EditState     `json:"state"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// SaveHandoverBody is the request body of a save
// @Description Handover save request
type SaveHandoverBody struct {
	SolutionID string `json:"solutionId" example:"sol-42"`
	driving.SaveHandoverRequest
}

// EditHandoverBody is the request body of an edit
// @Description Handover edit request
type EditHandoverBody struct {
	SolutionID string `json:"solutionId" example:"sol-42"`
	driving.EditHandoverRequest
}

// ListHandoversResponse wraps a page of handovers
// @Description Handover list
type ListHandoversResponse struct {
	Handovers []*domain.HandoverRecord `json:"handovers"`
	Count     int                      `json:"count"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns the readiness status of the API (checks the handover store and cache)
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "Store or cache unreachable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			s.logger.Warn("store not ready", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "handover store unavailable")
			return
		}
	}
	if s.cache != nil {
		if err := s.cache.Ping(r.Context()); err != nil {
			s.logger.Warn("cache not ready", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "cache unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// Search endpoints

// handleSearch godoc
// @Summary      Aggregate search
// @Description  Searches documents and email, tiers the results by confidence and pre-fills a handover draft
// @Tags         Search
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.AggregateRequest  true  "Search query"
// @Success      200      {object}  domain.AggregateResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      502      {object}  ErrorResponse  "All search back-ends failed"
// @Router       /search [post]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req domain.AggregateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.UserID = authCtx.UserID
	req.YachtID = authCtx.YachtID

	resp, err := s.aggregationService.Aggregate(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Handover endpoints

// handleSaveHandover godoc
// @Summary      Save handover
// @Description  Creates or overwrites the caller's handover for a solution
// @Tags         Handovers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      SaveHandoverBody  true  "Handover form"
// @Success      200      {object}  driving.SaveHandoverResponse
// @Failure      400      {object}  ErrorResponse      "Invalid request"
// @Failure      401      {object}  ErrorResponse      "Unauthorized"
// @Failure      503      {object}  SaveErrorResponse  "Store unavailable, draft returned"
// @Router       /handovers [post]
func (s *Server) handleSaveHandover(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body SaveHandoverBody
	if !decodeBody(w, r, &body) {
		return
	}

	req := body.SaveHandoverRequest
	req.Key = keyFor(authCtx, body.SolutionID)

	resp, err := s.handoverService.Save(r.Context(), req)
	if err != nil {
		var saveErr *domain.SaveError
		if errors.As(err, &saveErr) {
			writeJSON(w, http.StatusServiceUnavailable, SaveErrorResponse{
				Error: "handover could not be saved",
				Draft: saveErr.Draft,
				State: req.State,
			})
			return
		}
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleEditHandover godoc
// @Summary      Edit handover
// @Description  Unlocks a saved handover for editing and returns the stored record. Nothing is written.
// @Tags         Handovers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      EditHandoverBody  true  "Form state"
// @Success      200      {object}  driving.EditHandoverResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      404      {object}  ErrorResponse  "Handover not found"
// @Failure      409      {object}  ErrorResponse  "Handover is not saved"
// @Router       /handovers/edit [post]
func (s *Server) handleEditHandover(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body EditHandoverBody
	if !decodeBody(w, r, &body) {
		return
	}

	req := body.EditHandoverRequest
	req.Key = keyFor(authCtx, body.SolutionID)

	resp, err := s.handoverService.Edit(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleGetHandover godoc
// @Summary      Get handover
// @Description  Returns the caller's handover for a solution
// @Tags         Handovers
// @Produce      json
// @Security     BearerAuth
// @Param        solutionId  path      string  true  "Solution ID"
// @Success      200         {object}  domain.HandoverRecord
// @Failure      404         {object}  ErrorResponse  "Handover not found"
// @Router       /handovers/{solutionId} [get]
func (s *Server) handleGetHandover(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	record, err := s.handoverService.Get(r.Context(), keyFor(authCtx, chi.URLParam(r, "solutionId")))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// handleListHandovers godoc
// @Summary      List handovers
// @Description  Lists the caller's handovers on their yacht, most recently updated first
// @Tags         Handovers
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum number of handovers"
// @Success      200    {object}  ListHandoversResponse
// @Failure      400    {object}  ErrorResponse  "Invalid limit"
// @Router       /handovers [get]
func (s *Server) handleListHandovers(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	records, err := s.handoverService.List(r.Context(), authCtx.UserID, authCtx.YachtID, limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ListHandoversResponse{Handovers: records, Count: len(records)})
}

// keyFor builds a handover key whose identity comes from the token
func keyFor(authCtx *domain.AuthContext, solutionID string) domain.HandoverKey {
	return domain.HandoverKey{
		UserID:     authCtx.UserID,
		SolutionID: solutionID,
		YachtID:    authCtx.YachtID,
	}.Normalize()
}

// decodeBody decodes a JSON body, writing a 400 on failure
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeServiceError maps domain errors onto status codes
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnknownSource):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrServiceUnavailable):
		s.logger.Warn("search back-ends unavailable", zap.Error(err))
		writeError(w, http.StatusBadGateway, "search back-ends unavailable")
	case errors.Is(err, domain.ErrPersistence):
		s.logger.Error("handover store failure", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "handover store unavailable")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "request cancelled")
	default:
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
