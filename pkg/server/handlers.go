package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Imtguy97/mindharbor-bot/pkg/jsontime"
	"github.com/Imtguy97/mindharbor-bot/pkg/ledger"
	"github.com/Imtguy97/mindharbor-bot/pkg/vecstore"
)

const (
	statusOK       = "ok"
	statusCrisis   = "crisis"
	statusNoCredit = "no_credit"
)

// crisisText is returned instead of matches when a message trips the
// crisis detector. The message is never embedded or ranked.
const crisisText = "You're not alone, and you don't have to face this by yourself. " +
	"Please reach out right now: call or text 988 (US), or contact your " +
	"local emergency services. Talking to someone can help."

// noCreditText is returned when the user has neither a valid pass nor
// tokens to spend.
const noCreditText = "You've used all your message credits. Add tokens or an " +
	"access pass to keep chatting."

type queryRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
	K       int    `json:"k,omitempty"`
}

type matchPayload struct {
	Text  string  `json:"text"`
	Score float32 `json:"score"`
}

type queryResponse struct {
	Status          string            `json:"status"`
	Response        string            `json:"response,omitempty"`
	Matches         []matchPayload    `json:"matches,omitempty"`
	TokensRemaining *int              `json:"tokens_remaining,omitempty"`
	RequestID       string            `json:"request_id,omitempty"`
	Took            jsontime.Duration `json:"took"`
}

type userResponse struct {
	UserID          string         `json:"user_id"`
	TokensRemaining int            `json:"tokens_remaining"`
	PassExpiry      *jsontime.Unix `json:"pass_expiry"`
	PassValid       bool           `json:"pass_valid"`
}

type ingestRequest struct {
	Texts []string `json:"texts"`
	IDs   []string `json:"ids,omitempty"`
}

type ingestResponse struct {
	IDs   []string `json:"ids"`
	Count int      `json:"count"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "MindHarbor API running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.Message == "" {
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	resp, err := s.runQuery(r.Context(), req)
	if err != nil {
		s.log.Error("server: query failed",
			"id", requestID(r.Context()), "user", req.UserID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// runQuery is the pipeline shared by POST /query and the chat channel:
// crisis screening, then the credit check, then retrieval. Screening
// and credit outcomes are not errors; only infrastructure failures are.
func (s *Server) runQuery(ctx context.Context, req queryRequest) (queryResponse, error) {
	start := time.Now()
	resp := queryResponse{RequestID: requestID(ctx)}

	if hits := s.detector.Matches(req.Message); len(hits) > 0 {
		// Log the rule, never the message.
		s.log.Info("server: crisis screen tripped",
			"id", requestID(ctx), "rule", hits[0])
		resp.Status = statusCrisis
		resp.Response = crisisText
		resp.Took = jsontime.Duration(time.Since(start))
		return resp, nil
	}

	acct, err := s.ledger.Account(ctx, req.UserID)
	if err != nil {
		return queryResponse{}, fmt.Errorf("load account: %w", err)
	}
	if !acct.PassValid(s.now()) {
		ok, err := s.ledger.Spend(ctx, req.UserID)
		if err != nil {
			return queryResponse{}, fmt.Errorf("spend token: %w", err)
		}
		if !ok {
			zero := 0
			resp.Status = statusNoCredit
			resp.Response = noCreditText
			resp.TokensRemaining = &zero
			resp.Took = jsontime.Duration(time.Since(start))
			return resp, nil
		}
		// Mirror the spend locally instead of re-reading the account.
		acct.Tokens--
	}

	k := req.K
	if k <= 0 {
		k = s.topK
	}
	results, err := s.store.SimilaritySearch(ctx, req.Message, k)
	if err != nil {
		return queryResponse{}, fmt.Errorf("similarity search: %w", err)
	}

	matches := make([]matchPayload, len(results))
	for i, res := range results {
		matches[i] = matchPayload{Text: res.Text, Score: res.Score}
	}
	resp.Status = statusOK
	resp.Matches = matches
	resp.TokensRemaining = &acct.Tokens
	resp.Took = jsontime.Duration(time.Since(start))
	return resp, nil
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	acct, err := s.ledger.Account(r.Context(), r.PathValue("id"))
	if err != nil {
		s.log.Error("server: load account failed",
			"id", requestID(r.Context()), "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.writeJSON(w, http.StatusOK, s.userPayload(acct))
}

func (s *Server) handleGrantTokens(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount int `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Amount == 0 {
		s.writeError(w, http.StatusBadRequest, "amount must be non-zero")
		return
	}

	acct, err := s.ledger.AddTokens(r.Context(), r.PathValue("id"), body.Amount)
	if err != nil {
		s.log.Error("server: add tokens failed",
			"id", requestID(r.Context()), "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.writeJSON(w, http.StatusOK, s.userPayload(acct))
}

func (s *Server) handleGrantPass(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Days int `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Days <= 0 {
		s.writeError(w, http.StatusBadRequest, "days must be positive")
		return
	}

	acct, err := s.ledger.GrantPass(r.Context(), r.PathValue("id"), body.Days)
	if err != nil {
		s.log.Error("server: grant pass failed",
			"id", requestID(r.Context()), "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.writeJSON(w, http.StatusOK, s.userPayload(acct))
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Texts) == 0 {
		s.writeError(w, http.StatusBadRequest, "texts is required")
		return
	}

	ids, err := s.store.AddTexts(r.Context(), req.Texts, req.IDs)
	if err != nil {
		if errors.Is(err, vecstore.ErrIDCountMismatch) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("server: ingest failed",
			"id", requestID(r.Context()), "count", len(req.Texts), "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.writeJSON(w, http.StatusOK, ingestResponse{IDs: ids, Count: len(ids)})
}

func (s *Server) userPayload(acct ledger.Account) userResponse {
	resp := userResponse{
		UserID:          acct.UserID,
		TokensRemaining: acct.Tokens,
		PassValid:       acct.PassValid(s.now()),
	}
	if !acct.PassExpiry.IsZero() {
		exp := jsontime.Unix(acct.PassExpiry)
		resp.PassExpiry = &exp
	}
	return resp
}
