package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/go-chi/chi/v5"
)

type createIntentRequest struct {
	ContentID string `json:"contentId"`
}

type createIntentResponse struct {
	IntentID     string `json:"intentId"`
	ClientHandle string `json:"clientHandle"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type confirmIntentRequest struct {
	IntentID string `json:"intentId"`
}

type issueTokenRequest struct {
	ContentID string `json:"contentId"`
	Format    string `json:"format"`
}

type issueTokenResponse struct {
	Token     string    `json:"token"`
	ContentID string    `json:"contentId"`
	Format    string    `json:"format"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type resolveTokenResponse struct {
	FileRef     string    `json:"fileRef"`
	ContentID   string    `json:"contentId"`
	Format      string    `json:"format"`
	DownloadURL string    `json:"downloadUrl,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type ownershipResponse struct {
	ContentID      string     `json:"contentId"`
	PurchasePrice  int64      `json:"purchasePrice"`
	PurchaseDate   time.Time  `json:"purchaseDate"`
	DownloadCount  int64      `json:"downloadCount"`
	LastDownloadAt *time.Time `json:"lastDownloadAt,omitempty"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", common.ErrValidation)
	}
	return nil
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) createIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	created, err := h.payments.CreateIntent(r.Context(), userIDFromContext(r.Context()), req.ContentID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createIntentResponse{
		IntentID:     created.IntentID,
		ClientHandle: created.ClientHandle,
		Amount:       created.Amount,
		Currency:     created.Currency,
	})
}

func (h *Handler) confirmIntent(w http.ResponseWriter, r *http.Request) {
	var req confirmIntentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	if err := h.payments.ConfirmIntent(r.Context(), req.IntentID, userIDFromContext(r.Context())); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) issueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	issued, err := h.tokens.IssueToken(r.Context(), userIDFromContext(r.Context()), req.ContentID, req.Format)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, issueTokenResponse{
		Token:     issued.Token,
		ContentID: issued.ContentID,
		Format:    issued.Format,
		IssuedAt:  issued.IssuedAt.UTC(),
		ExpiresAt: issued.ExpiresAt.UTC(),
	})
}

func (h *Handler) resolveToken(w http.ResponseWriter, r *http.Request) {
	resolved, err := h.tokens.ResolveToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resolveTokenResponse{
		FileRef:     resolved.FileRef,
		ContentID:   resolved.ContentID,
		Format:      resolved.Format,
		DownloadURL: resolved.DownloadURL,
		ExpiresAt:   resolved.ExpiresAt.UTC(),
	})
}

func (h *Handler) listOwnerships(w http.ResponseWriter, r *http.Request) {
	owned, err := h.library.List(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		h.logger.Error(r.Context(), "list ownerships failed", "error", err)
		writeDomainError(w, err)
		return
	}

	items := make([]ownershipResponse, 0, len(owned))
	for _, o := range owned {
		items = append(items, ownershipResponse{
			ContentID:      o.ContentID,
			PurchasePrice:  o.PurchasePrice,
			PurchaseDate:   o.PurchaseDate.UTC(),
			DownloadCount:  o.DownloadCount,
			LastDownloadAt: o.LastDownloadAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"ownerships": items})
}
