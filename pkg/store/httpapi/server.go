// Package httpapi serves the document API over any [store.Store].
//
// Routes:
//
//	GET    /documents           list (query: status, jenis, ownerId, limit)
//	POST   /documents           create a DRAFT from a record body
//	GET    /documents/{id}      fetch one record
//	PUT    /documents/{id}      replace content, or change status with {status, catatan}
//	DELETE /documents/{id}      delete
//
// The acting user is read from the X-Actor-Role and X-Actor-ID headers and
// every write goes through [store.Service], so lifecycle rules hold no
// matter which client calls.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/errors"
	"github.com/suratkita/suratkita/pkg/lifecycle"
	"github.com/suratkita/suratkita/pkg/store"
)

// maxBody bounds request bodies; documents carry inline images.
const maxBody = 32 << 20

// RequestTimeout bounds each request's context.
const RequestTimeout = 30 * time.Second

// Server handles the document API.
type Server struct {
	svc    *store.Service
	logger *log.Logger
	router chi.Router
}

// New creates a server over svc.
func New(svc *store.Service, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(RequestTimeout))
	r.Use(s.logRequests)
	r.Route("/documents", func(r chi.Router) {
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Get("/{id}", s.get)
		r.Put("/{id}", s.put)
		r.Delete("/{id}", s.delete)
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.Filter{
		Status:  document.Status(q.Get("status")),
		Jenis:   document.Kind(q.Get("jenis")),
		OwnerID: q.Get("ownerId"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.fail(w, errors.Validation("invalid limit %q", v))
			return
		}
		f.Limit = n
	}
	recs, err := s.svc.List(r.Context(), f)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := store.ValidateID(id); err != nil {
		s.fail(w, err)
		return
	}
	rec, err := s.svc.Store.Get(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	var rec store.Record
	if err := decode(r, &rec); err != nil {
		s.fail(w, err)
		return
	}
	doc, err := rec.Document(s.svc.MaxCaption)
	if err != nil {
		s.fail(w, err)
		return
	}
	created, err := s.svc.Create(r.Context(), doc, actor)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondDocument(w, http.StatusCreated, created)
}

func (s *Server) put(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := store.ValidateID(id); err != nil {
		s.fail(w, err)
		return
	}
	// Both body shapes decode into a record; konten selects a content update.
	var body store.Record
	if err := decode(r, &body); err != nil {
		s.fail(w, err)
		return
	}

	switch {
	case len(body.Konten) > 0:
		body.ID = id
		doc, err := body.Document(s.svc.MaxCaption)
		if err != nil {
			s.fail(w, err)
			return
		}
		updated, err := s.svc.Update(r.Context(), doc, actor)
		if err != nil {
			s.fail(w, err)
			return
		}
		s.respondDocument(w, http.StatusOK, updated)
	case body.Status != "":
		if _, err := s.svc.Transition(r.Context(), id, actor, body.Status, body.Catatan); err != nil {
			s.fail(w, err)
			return
		}
		rec, err := s.svc.Store.Get(r.Context(), id)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	default:
		s.fail(w, errors.Validation("request needs konten or status"))
	}
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.svc.Delete(r.Context(), chi.URLParam(r, "id"), actor); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Helpers
// =============================================================================

func actorFrom(r *http.Request) (lifecycle.Actor, error) {
	role, err := lifecycle.ParseRole(r.Header.Get(store.HeaderActorRole))
	if err != nil {
		return lifecycle.Actor{}, errors.Permission("missing or unknown %s header", store.HeaderActorRole)
	}
	return lifecycle.Actor{ID: r.Header.Get(store.HeaderActorID), Role: role}, nil
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}

func (s *Server) respondDocument(w http.ResponseWriter, status int, doc *document.Document) {
	rec, err := store.FromDocument(doc)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, status, rec)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := store.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, store.ErrorBody{Code: code, Message: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
