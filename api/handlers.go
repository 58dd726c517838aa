// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rangkai-protocol/rangkai-gov/governance"
)

const maxBodyBytes = 1 << 20

type requestIDKey struct{}

func newRequestID() string {
	return "req_" + uuid.NewString()
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = newRequestID()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFrom(r *http.Request) string {
	if id, ok := r.Context().Value(requestIDKey{}).(string); ok {
		return id
	}
	return newRequestID()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		RequestID: requestIDFrom(r),
		Error: ErrorBody{
			Code:    code,
			Message: message,
		},
	})
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// errorStatus maps governance error categories to HTTP. Execution failures
// are checked first because they also carry the handler's own category.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, governance.ErrExecutionFailure):
		return http.StatusUnprocessableEntity, "EXECUTION_FAILED"
	case errors.Is(err, governance.ErrAuthorization):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, governance.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, governance.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, governance.ErrStateConflict):
		return http.StatusConflict, "STATE_CONFLICT"
	case errors.Is(err, governance.ErrPersistence):
		return http.StatusServiceUnavailable, "UNAVAILABLE"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

func (s *Server) writeGovernanceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.Error(
			"request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestIDFrom(r),
			"error", err,
		)
		message = http.StatusText(status)
	}
	writeError(w, r, status, code, message)
}

// signerID returns the caller identity or writes a 401
func signerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.Header.Get(SignerHeader))
	if id == "" {
		writeError(
			w,
			r,
			http.StatusUnauthorized,
			"MISSING_IDENTITY",
			SignerHeader+" header is required",
		)
		return "", false
	}
	return id, true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{IsHealthy: true})
}

func (s *Server) handleListSigners(w http.ResponseWriter, r *http.Request) {
	signers, err := s.gov.Registry.GetActiveSigners(r.Context())
	if err != nil {
		s.writeGovernanceError(w, r, err)
		return
	}
	ret := make([]SignerResponse, 0, len(signers))
	for i := range signers {
		ret = append(ret, NewSignerResponse(&signers[i]))
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) handleGetSigner(w http.ResponseWriter, r *http.Request) {
	signer, err := s.gov.Registry.GetSigner(r.Context(), chi.URLParam(r, "signer_id"))
	if err != nil {
		s.writeGovernanceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewSignerResponse(signer))
}

func (s *Server) handleQuorum(w http.ResponseWriter, r *http.Request) {
	signers, err := s.gov.Registry.GetActiveSigners(r.Context())
	if err != nil {
		s.writeGovernanceError(w, r, err)
		return
	}
	quorum, err := s.gov.Registry.GetRequiredQuorum(r.Context())
	if err != nil {
		s.writeGovernanceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, QuorumResponse{
		ActiveSigners:     len(signers),
		RequiredApprovals: quorum,
	})
}

func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	var statuses []string
	for _, raw := range r.URL.Query()["status"] {
		for _, status := range strings.Split(raw, ",") {
			if status = strings.TrimSpace(status); status != "" {
				statuses = append(statuses, status)
			}
		}
	}
	proposals, err := s.gov.Ledger.ListProposals(r.Context(), statuses...)
	if err != nil {
		s.writeGovernanceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewProposalsResponse(proposals))
}

func (s *Server) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	caller, ok := signerID(w, r)
	if !ok {
		return
	}
	var req CreateProposalRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}
	receipt, err := s.gov.Ledger.CreateProposal(r.Context(), governance.CreateProposalInput{
		ActionType:          req.ActionType,
		Params:              req.Params,
		Rationale:           req.Rationale,
		ProposedBy:          caller,
		VotingDurationHours: req.VotingDurationHours,
	})
	if err != nil {
		s.writeGovernanceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateProposalResponse{
		ID:                receipt.ID,
		Number:            receipt.Number,
		Status:            receipt.Status,
		RequiredApprovals: receipt.RequiredApprovals,
		VotingEndsAt:      receipt.VotingEndsAt,
	})
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	summary, err := s.gov.Ledger.GetProposalSummary(r.Context(), chi.URLParam(r, "proposal_id"))
	if err != nil {
		s.writeGovernanceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewSummaryResponse(summary))
}

func (s *Server) handleSubmitVote(w http.ResponseWriter, r *http.Request) {
	caller, ok := signerID(w, r)
	if !ok {
		return
	}
	var req VoteRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}
	if req.Approved == nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "approved is required")
		return
	}
	receipt, err := s.gov.Ledger.SubmitVote(r.Context(), governance.VoteInput{
		ProposalID: chi.URLParam(r, "proposal_id"),
		SignerID:   caller,
		Approved:   *req.Approved,
		Comment:    req.Comment,
		Signature:  req.Signature,
	})
	if err != nil {
		s.writeGovernanceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, VoteResponse{
		VoteID:            receipt.VoteID,
		ProposalStatus:    receipt.ProposalStatus,
		CurrentApprovals:  receipt.CurrentApprovals,
		RequiredApprovals: receipt.RequiredApprovals,
	})
}

func (s *Server) handleExecuteProposal(w http.ResponseWriter, r *http.Request) {
	caller, ok := signerID(w, r)
	if !ok {
		return
	}
	exec, err := s.gov.Engine.ExecuteProposal(r.Context(), chi.URLParam(r, "proposal_id"), caller)
	if err != nil {
		if exec != nil {
			status, code := errorStatus(err)
			writeJSON(w, status, ErrorResponse{
				RequestID: requestIDFrom(r),
				Error:     ErrorBody{Code: code, Message: err.Error()},
				Execution: NewExecutionResponse(exec),
			})
			return
		}
		s.writeGovernanceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewExecutionResponse(exec))
}

func (s *Server) handleListExecutions(w http.ResponseWriter, r *http.Request) {
	execs, err := s.gov.Engine.ListExecutions(r.Context(), chi.URLParam(r, "proposal_id"))
	if err != nil {
		s.writeGovernanceError(w, r, err)
		return
	}
	ret := make([]*ExecutionResponse, 0, len(execs))
	for i := range execs {
		ret = append(ret, NewExecutionResponse(&execs[i]))
	}
	writeJSON(w, http.StatusOK, ret)
}

// handleExpireProposals lets a scheduler outside this service run a sweep
func (s *Server) handleExpireProposals(w http.ResponseWriter, r *http.Request) {
	expired, err := s.gov.Ledger.ExpireOldProposals(r.Context())
	if err != nil {
		s.writeGovernanceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ExpireResponse{Expired: NewProposalsResponse(expired)})
}

func (s *Server) handleListParameters(w http.ResponseWriter, r *http.Request) {
	params, err := s.gov.Parameters.ListParameters(r.Context())
	if err != nil {
		s.writeGovernanceError(w, r, err)
		return
	}
	ret := make([]ParameterResponse, 0, len(params))
	for i := range params {
		ret = append(ret, NewParameterResponse(&params[i]))
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) handleGetParameter(w http.ResponseWriter, r *http.Request) {
	param, err := s.gov.Parameters.GetParameter(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeGovernanceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewParameterResponse(param))
}

func (s *Server) handleProtocolStatus(w http.ResponseWriter, r *http.Request) {
	paused, err := s.gov.Parameters.IsProtocolPaused(r.Context())
	if err != nil {
		s.writeGovernanceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProtocolStatusResponse{Paused: paused})
}

func (s *Server) handleTreasuryMovements(w http.ResponseWriter, r *http.Request) {
	movements, err := s.gov.Engine.TreasuryMovements(r.Context())
	if err != nil {
		s.writeGovernanceError(w, r, err)
		return
	}
	ret := make([]TreasuryMovementResponse, 0, len(movements))
	for i := range movements {
		ret = append(ret, NewTreasuryMovementResponse(&movements[i]))
	}
	writeJSON(w, http.StatusOK, ret)
}
