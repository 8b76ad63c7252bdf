package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"msgvault/internal/constants"
	"msgvault/internal/database"
	"msgvault/internal/errors"
	"msgvault/internal/middleware"
	"msgvault/internal/models"
	"msgvault/internal/service"
	"msgvault/internal/tracing"
	"msgvault/internal/validation"
	"msgvault/internal/versioning"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Server struct {
	router    *mux.Router
	cfg       *models.Config
	logger    *logrus.Logger
	processor *service.Processor
	db        *database.Database
	server    *http.Server
	verbose   bool
}

func NewServer(cfg *models.Config, processor *service.Processor, db *database.Database, logger *logrus.Logger, verbose bool) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		cfg:       cfg,
		logger:    logger,
		processor: processor,
		db:        db,
		verbose:   verbose,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.ObservabilityMiddleware(s.logger))

	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics()).Methods(http.MethodGet)

	webhook := s.router.PathPrefix("/webhook").Subrouter()
	webhook.Use(middleware.WebhookObservabilityMiddleware(s.logger))
	webhook.HandleFunc("", s.handleVerification()).Methods(http.MethodGet)
	webhook.HandleFunc("", s.handleWebhook()).Methods(http.MethodPost)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(versioning.NewVersionMiddleware(s.logger).Handler)
	api.HandleFunc("/events", s.handleListEvents()).Methods(http.MethodGet)
	api.HandleFunc("/messages", s.handleListMessages()).Methods(http.MethodGet)
	api.HandleFunc("/messages/unresponded", s.handleListUnresponded()).Methods(http.MethodGet)
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Server.IdleTimeoutSec) * time.Second,
	}

	s.logger.Infof("Starting server on port %d", s.cfg.Server.Port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}

// handleVerification implements the subscription handshake: the platform
// calls GET with a mode, the shared verify token, and a challenge string to
// echo back on success.
func (s *Server) handleVerification() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handshake := models.ParseHandshakeRequest(r.URL.Query())

		if handshake.Matches(s.cfg.Webhook.VerifyToken) {
			s.logger.Info("Webhook verification handshake succeeded")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(handshake.Challenge))
			return
		}

		s.logger.WithFields(logrus.Fields{
			"mode": handshake.Mode,
		}).Warn("Webhook verification handshake rejected")
		s.writeError(w, r, errors.New(errors.ErrCodeHandshakeFailed, "verification handshake failed").
			WithUserMessage("Verification failed"))
	}
}

func (s *Server) handleWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := validation.ValidateHTTPRequestSize(r, constants.MaxWebhookBodyBytes); err != nil {
			s.writeError(w, r, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, constants.MaxWebhookBodyBytes)
		rawBody, err := io.ReadAll(r.Body)
		if err != nil {
			s.writeError(w, r, errors.NewMalformedPayloadError("failed to read request body", err))
			return
		}

		signatureHeader := signatureFromRequest(r)
		if !ValidateSignature(s.cfg.Webhook.Secret, rawBody, signatureHeader) {
			s.logger.WithFields(logrus.Fields{
				"header_present": signatureHeader != "",
			}).Warn("Rejected webhook with invalid signature")
			s.writeError(w, r, errors.NewSignatureError("signature validation failed", signatureHeader == ""))
			return
		}

		ctx := context.WithValue(r.Context(), service.VerboseContextKey, s.verbose)
		if err := s.processor.ProcessWebhook(ctx, rawBody); err != nil {
			s.writeError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("EVENT_RECEIVED"))
	}
}

func (s *Server) handleListEvents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		filter := models.EventFilter{}
		if eventType := query.Get("event_type"); eventType != "" {
			if err := validation.ValidateEventType(eventType); err != nil {
				s.writeError(w, r, err)
				return
			}
			filter.EventType = &eventType
		}

		var err error
		if filter.StartDate, err = validation.ParseDateParam(query.Get("start"), "start"); err != nil {
			s.writeError(w, r, err)
			return
		}
		if filter.EndDate, err = validation.ParseDateParam(query.Get("end"), "end"); err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := validation.ValidateDateRange(filter.StartDate, filter.EndDate); err != nil {
			s.writeError(w, r, err)
			return
		}
		if filter.Limit, err = validation.ParseLimitParam(query.Get("limit")); err != nil {
			s.writeError(w, r, err)
			return
		}

		events, err := s.db.ListEvents(r.Context(), filter)
		if err != nil {
			s.writeError(w, r, errors.NewDatabaseError("list events", err))
			return
		}

		s.writeJSON(w, r, map[string]interface{}{
			"events": events,
			"count":  len(events),
		})
	}
}

func (s *Server) handleListMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		filter := models.MessageFilter{}
		if sender := query.Get("sender"); sender != "" {
			filter.SenderID = &sender
		}

		var err error
		if filter.StartDate, err = validation.ParseDateParam(query.Get("start"), "start"); err != nil {
			s.writeError(w, r, err)
			return
		}
		if filter.EndDate, err = validation.ParseDateParam(query.Get("end"), "end"); err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := validation.ValidateDateRange(filter.StartDate, filter.EndDate); err != nil {
			s.writeError(w, r, err)
			return
		}
		if filter.Limit, err = validation.ParseLimitParam(query.Get("limit")); err != nil {
			s.writeError(w, r, err)
			return
		}

		messages, err := s.db.ListMessages(r.Context(), filter)
		if err != nil {
			s.writeError(w, r, errors.NewDatabaseError("list messages", err))
			return
		}

		s.writeJSON(w, r, map[string]interface{}{
			"messages": messages,
			"count":    len(messages),
		})
	}
}

func (s *Server) handleListUnresponded() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messages, err := s.db.ListUnrespondedMessages(r.Context())
		if err != nil {
			s.writeError(w, r, errors.NewDatabaseError("list unresponded messages", err))
			return
		}

		s.writeJSON(w, r, map[string]interface{}{
			"messages": messages,
			"count":    len(messages),
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("Failed to encode response body")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestInfo := tracing.GetRequestInfo(r.Context())
	response := errors.ToHTTPResponse(err, requestInfo.RequestID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(errors.HTTPStatusCode(err))
	if encodeErr := json.NewEncoder(w).Encode(response); encodeErr != nil {
		s.logger.WithError(encodeErr).Error("Failed to encode error response")
	}
}
