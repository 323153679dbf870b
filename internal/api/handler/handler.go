package handler

import (
	"tawk/backend/internal/auth"
	"tawk/backend/internal/chathub"
	"tawk/backend/internal/logging"
	"tawk/backend/internal/storage"

	"go.uber.org/zap"
)

// Handler serves the websocket endpoint and the REST views.
type Handler struct {
	Hub     *chathub.ManagerService
	Storage storage.Storage
	Auth    auth.Verifier

	log *zap.Logger
}

func NewHandler(hub *chathub.ManagerService, s storage.Storage, verifier auth.Verifier, log *zap.Logger) *Handler {
	return &Handler{
		Hub:     hub,
		Storage: s,
		Auth:    verifier,
		log:     logging.OrNop(log).With(zap.String("component", "http")),
	}
}
