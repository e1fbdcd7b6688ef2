// Package httpapi exposes the purchase and delivery operations over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type Payments interface {
	CreateIntent(ctx context.Context, userID, contentID string) (*services.CreatedIntent, error)
	ConfirmIntent(ctx context.Context, intentID, userID string) error
}

type Tokens interface {
	IssueToken(ctx context.Context, userID, contentID, format string) (*services.IssuedToken, error)
	ResolveToken(ctx context.Context, tokenValue string) (*services.ResolvedToken, error)
}

type Library interface {
	List(ctx context.Context, userID string) ([]*models.Ownership, error)
}

// Handler binds the HTTP routes to the store services.
type Handler struct {
	payments  Payments
	tokens    Tokens
	library   Library
	logger    logging.Logger
	jwtSecret []byte
}

func NewHandler(l logging.Logger, p Payments, t Tokens, lib Library, secretKey string) *Handler {
	return &Handler{
		payments:  p,
		tokens:    t,
		library:   lib,
		logger:    l.With("module", "http_api"),
		jwtSecret: []byte(secretKey),
	}
}

// NewRouter registers the routes and middleware stack.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(h.recoverMiddleware)
	r.Use(h.loggingMiddleware)

	r.Get("/healthz", h.healthz)
	r.Get("/download/resolve/{token}", h.resolveToken)

	r.Group(func(r chi.Router) {
		r.Use(h.authMiddleware)
		r.Post("/purchase/intent", h.createIntent)
		r.Post("/purchase/confirm", h.confirmIntent)
		r.Post("/download/token", h.issueToken)
		r.Get("/library", h.listOwnerships)
	})

	return r
}
