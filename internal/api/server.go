package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pbaille/blog/internal/domain"
	"github.com/pbaille/blog/internal/moderation"
	"github.com/pbaille/blog/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultPageSize = 20
	maxPageSize     = 2000
	maxBodyBytes    = 1 << 20
)

// EntryStore persists entries
type EntryStore interface {
	Save(ctx context.Context, e *domain.Entry) (*domain.Entry, error)
	FindAll(ctx context.Context, req domain.PageRequest) (*domain.Page, error)
	FindOne(ctx context.Context, id int64) (*domain.Entry, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, query string, req domain.PageRequest) (*domain.Page, error)
	Ping(ctx context.Context) error
}

// Options configures a Server
type Options struct {
	Addr      string
	AppName   string
	Moderator *moderation.Moderator
	Logger    *slog.Logger
}

// Server handles HTTP requests for the blog entry API
type Server struct {
	store     EntryStore
	moderator *moderation.Moderator
	logger    *slog.Logger
	appName   string
	addr      string
}

// New creates a new API server
func New(s EntryStore, opts Options) *Server {
	if opts.Moderator == nil {
		opts.Moderator = moderation.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.AppName == "" {
		opts.AppName = "blogApp"
	}
	return &Server{
		store:     s,
		moderator: opts.Moderator,
		logger:    opts.Logger,
		appName:   opts.AppName,
		addr:      opts.Addr,
	}
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(withRequestID)
	r.Use(s.withLogging)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/entries", s.createEntry).Methods(http.MethodPost)
	api.HandleFunc("/entries", s.updateEntry).Methods(http.MethodPut)
	api.HandleFunc("/entries", s.listEntries).Methods(http.MethodGet)
	api.HandleFunc("/entries/{id:[0-9]+}", s.getEntry).Methods(http.MethodGet)
	api.HandleFunc("/entries/{id:[0-9]+}", s.deleteEntry).Methods(http.MethodDelete)
	api.HandleFunc("/_search/entries", s.searchEntries).Methods(http.MethodGet)

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return s.withCORS(r)
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// moderate runs the content moderator on an entry about to be written
func (s *Server) moderate(r *http.Request, e *domain.Entry) error {
	if e.Emoji == "" {
		return domain.EmojiMissing()
	}

	d := s.moderator.Check(e.Title, e.Content, e.Emoji)
	if d.Rejected() {
		moderationDecisions.WithLabelValues("rejected", d.Wordlist).Inc()
		s.logger.Info("entry rejected by moderator",
			"emoji", e.Emoji,
			"wordlist", d.Wordlist,
			"field", d.Field,
			"keyword", d.Keyword,
			"request_id", RequestID(r.Context()),
		)
		return domain.InvalidContent()
	}
	moderationDecisions.WithLabelValues("accepted", d.Wordlist).Inc()
	return nil
}

func (s *Server) createEntry(w http.ResponseWriter, r *http.Request) {
	var e domain.Entry
	if err := decodeBody(w, r, &e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	s.logger.Debug("REST request to save Entry", "title", e.Title, "emoji", e.Emoji)

	if e.HasID() {
		s.writeAlert(w, domain.IdAlreadyPresent())
		return
	}
	if err := s.moderate(r, &e); err != nil {
		s.writeFailure(w, r, err)
		return
	}

	result, err := s.store.Save(r.Context(), &e)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/entries/%d", *result.ID))
	s.creationAlert(w, *result.ID)
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) updateEntry(w http.ResponseWriter, r *http.Request) {
	var e domain.Entry
	if err := decodeBody(w, r, &e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if !e.HasID() {
		s.writeAlert(w, domain.IdMissing())
		return
	}
	s.logger.Debug("REST request to update Entry", "id", *e.ID, "emoji", e.Emoji)

	if err := s.moderate(r, &e); err != nil {
		s.writeFailure(w, r, err)
		return
	}

	result, err := s.store.Save(r.Context(), &e)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	s.updateAlert(w, *e.ID)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("REST request to get a page of Entries", "page", req.Page, "size", req.Size)

	page, err := s.store.FindAll(r.Context(), req)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	paginationHeaders(w, r, page)
	writeJSON(w, http.StatusOK, page.Entries)
}

func (s *Server) searchEntries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'query' is required")
		return
	}
	req, err := pageRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := s.store.Search(r.Context(), query, req)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	paginationHeaders(w, r, page)
	writeJSON(w, http.StatusOK, page.Entries)
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("REST request to get Entry", "id", id)

	entry, err := s.store.FindOne(r.Context(), id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("REST request to delete Entry", "id", id)

	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeFailure(w, r, err)
		return
	}

	s.deletionAlert(w, id)
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", mux.Vars(r)["id"])
	}
	return id, nil
}

// pageRequest reads page, size and sort=property[,asc|desc] from the query
func pageRequest(r *http.Request) (domain.PageRequest, error) {
	q := r.URL.Query()
	req := domain.PageRequest{Size: defaultPageSize, Sort: "id"}

	if p := q.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return req, fmt.Errorf("invalid page %q", p)
		}
		req.Page = n
	}
	if sz := q.Get("size"); sz != "" {
		n, err := strconv.Atoi(sz)
		if err != nil || n < 1 {
			return req, fmt.Errorf("invalid size %q", sz)
		}
		req.Size = min(n, maxPageSize)
	}
	if sort := q.Get("sort"); sort != "" {
		prop, dir, _ := strings.Cut(sort, ",")
		if !store.SortColumn(prop) {
			return req, fmt.Errorf("unknown sort property %q", prop)
		}
		req.Sort = prop
		switch strings.ToLower(dir) {
		case "", "asc":
		case "desc":
			req.Desc = true
		default:
			return req, fmt.Errorf("invalid sort direction %q", dir)
		}
	}
	return req, nil
}

// writeFailure maps domain errors to responses
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var alert *domain.AlertError
	switch {
	case errors.As(err, &alert):
		s.writeAlert(w, alert)
	case errors.Is(err, domain.ErrIdNotFound):
		s.writeAlert(w, domain.IdNotFound())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "entry not found")
	default:
		s.logger.Error("request failed", "err", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// AlertResponse is the body of a 400 raised for an entry
type AlertResponse struct {
	Title      string `json:"title"`
	Status     int    `json:"status"`
	EntityName string `json:"entityName"`
	ErrorKey   string `json:"errorKey"`
	Message    string `json:"message"`
	Params     string `json:"params"`
}

func (s *Server) writeAlert(w http.ResponseWriter, alert *domain.AlertError) {
	s.failureAlert(w, alert)
	writeJSON(w, http.StatusBadRequest, AlertResponse{
		Title:      alert.Title,
		Status:     http.StatusBadRequest,
		EntityName: alert.EntityName,
		ErrorKey:   alert.ErrorKey,
		Message:    "error." + alert.ErrorKey,
		Params:     alert.EntityName,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
