// Package web serves the task list to a browser.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/nibzard/smarttodo/internal/breakdown"
	"github.com/nibzard/smarttodo/internal/logging"
	"github.com/nibzard/smarttodo/internal/todo"
)

//go:embed templates/*
var templatesFS embed.FS

// Handler handles web UI requests
type Handler struct {
	store     *todo.Store
	svc       breakdown.Service
	logger    *log.Logger
	templates *template.Template
	inflight  sync.WaitGroup
}

// NewHandler creates a new web handler. A nil logger discards output.
func NewHandler(store *todo.Store, svc breakdown.Service, logger *log.Logger) (*Handler, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}

	return &Handler{
		store:     store,
		svc:       svc,
		logger:    logger,
		templates: tmpl,
	}, nil
}

// RegisterRoutes registers web UI routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.Use(h.logRequests)
	r.HandleFunc("/", h.handleIndex).Methods("GET")
	r.HandleFunc("/tasks", h.handleAdd).Methods("POST")
	r.HandleFunc("/breakdown", h.handleBreakdown).Methods("POST")
	r.HandleFunc("/tasks/{id}/toggle", h.handleToggle).Methods("POST")
	r.HandleFunc("/tasks/{id}/delete", h.handleDelete).Methods("POST")
	r.HandleFunc("/error/dismiss", h.handleDismiss).Methods("POST")
	r.HandleFunc("/api/state", h.handleState).Methods("GET")
	r.HandleFunc("/healthz", h.handleHealth).Methods("GET")
}

// Router returns a router with all routes registered.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// Wait blocks until every breakdown request started by the handler has
// been reduced into the store.
func (h *Handler) Wait() {
	h.inflight.Wait()
}

// Drain waits like Wait but gives up when ctx is done.
func (h *Handler) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type taskView struct {
	ID        string
	Label     string
	Done      bool
	Completed int
	Children  []todo.Task
}

type pageData struct {
	Title string
	Empty string
	State todo.State
	Tasks []taskView
}

// handleIndex renders the task list page
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	st := h.store.Snapshot()
	data := pageData{
		Title: todo.Title,
		Empty: todo.EmptyListMessage,
		State: st,
	}
	for i := range st.Tasks {
		task := &st.Tasks[i]
		data.Tasks = append(data.Tasks, taskView{
			ID:        task.ID,
			Label:     task.Label,
			Done:      task.Done,
			Completed: task.CompletedChildren(),
			Children:  task.Children,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	st := h.store.AddText(r.FormValue("text"))
	h.logger.Debug("add submitted", "tasks", len(st.Tasks))
	redirectHome(w, r)
}

func (h *Handler) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.store.BeginBreakdownText(r.FormValue("text"))
	if !ok {
		if h.store.Snapshot().Loading {
			http.Error(w, "A breakdown is already in progress", http.StatusConflict)
			return
		}
		redirectHome(w, r)
		return
	}

	h.logger.Info("breakdown requested", "task", payload)
	h.inflight.Add(1)
	go h.runBreakdown(context.WithoutCancel(r.Context()), payload)
	redirectHome(w, r)
}

// runBreakdown performs the one request for payload and reduces its outcome.
func (h *Handler) runBreakdown(ctx context.Context, payload string) {
	defer h.inflight.Done()

	lines, err := h.svc.Breakdown(ctx, payload)
	if err != nil {
		h.logger.Error("breakdown failed", "err", err)
		h.store.FailBreakdown()
		return
	}
	h.store.FinishBreakdown(payload, lines)
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	h.store.Toggle(mux.Vars(r)["id"])
	redirectHome(w, r)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	h.store.Delete(id)
	h.logger.Debug("delete submitted", "id", id)
	redirectHome(w, r)
}

func (h *Handler) handleDismiss(w http.ResponseWriter, r *http.Request) {
	h.store.DismissError()
	redirectHome(w, r)
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	st := h.store.Snapshot()
	if st.Tasks == nil {
		st.Tasks = []todo.Task{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(st); err != nil {
		h.logger.Error("encode state", "err", err)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
