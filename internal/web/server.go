// Package web is the form-driven shell over the cleaning core: upload,
// pre-filter preview, classification, checklist refinement and download,
// with per-upload state held in server-side sessions.
package web

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gmapscleaner/internal/classify"
	"gmapscleaner/internal/config"
	"gmapscleaner/internal/export"
	"gmapscleaner/internal/selection"
	"gmapscleaner/internal/store"
	"gmapscleaner/internal/table"
)

const maxUploadBytes = 256 << 20

type Server struct {
	cfg        config.Config
	store      *store.Store
	classifier *classify.Classifier
	sessions   *sessionRegistry
}

// New builds the server. st may be nil when no cache database is configured.
func New(cfg config.Config, st *store.Store) *Server {
	initMetrics()
	return &Server{
		cfg:   cfg,
		store: st,
		classifier: &classify.Classifier{
			Provider:    cfg.LLMProvider,
			Model:       cfg.LLMModel,
			APIKey:      cfg.APIKey(),
			Concurrency: cfg.Concurrency,
		},
		sessions: newSessionRegistry(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", s.handleIndex)
	r.Post("/upload", s.handleUpload)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.handleSession)
		r.Post("/prefilter", s.handlePrefilter)
		r.Post("/classify", s.handleClassify)
		r.Post("/refine", s.handleRefine)
		r.Post("/export", s.handleExport)
	})

	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderIndex(w, "")
}

func (s *Server) renderIndex(w http.ResponseWriter, notice string) {
	view := indexView{NeedsPassword: s.cfg.WebPassword != "", Notice: notice}
	if err := indexTmpl.Execute(w, view); err != nil {
		log.Printf("web render index err=%v", err)
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if s.cfg.WebPassword != "" && r.FormValue("password") != s.cfg.WebPassword {
		w.WriteHeader(http.StatusUnauthorized)
		s.renderIndex(w, "The password you entered is incorrect.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing upload file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	t, err := table.LoadReader(header.Filename, file, s.cfg.CategoryColumn)
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.renderIndex(w, err.Error())
		return
	}

	uploadsTotal.Inc()
	sess := s.sessions.create(header.Filename, t)
	log.Printf("web upload file=%s rows=%d session=%s", header.Filename, t.Len(), sess.id)
	http.Redirect(w, r, "/sessions/"+sess.id, http.StatusSeeOther)
}

func (s *Server) withSession(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, ok := s.sessions.get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.withSession(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	view := sessionView{
		ID:               sess.id,
		SourceName:       sess.sourceName,
		LoadedRows:       sess.loaded.Len(),
		FilteredRows:     sess.filtered.Len(),
		Removed:          sess.removed,
		HasRatingColumns: sess.loaded.HasRatingColumns(),
		Keyword:          sess.keyword,
		Classified:       sess.state != nil,
		HasFinal:         sess.final != nil,
		RowsPerBatch:     s.cfg.RowsPerBatch,
		Notice:           sess.notice,
	}
	if sess.state != nil {
		for _, cat := range sess.state.Categories() {
			view.Candidates = append(view.Candidates, candidateView{Name: cat, Kept: sess.state.IsKept(cat)})
		}
	}
	if sess.final != nil {
		view.FinalRows = sess.final.Len()
	}
	sess.notice = ""
	sess.mu.Unlock()

	if err := sessionTmpl.Execute(w, view); err != nil {
		log.Printf("web render session=%s err=%v", view.ID, err)
	}
}

// handlePrefilter previews or commits rating thresholds. A malformed
// threshold is ignored with a notice, never fatal.
func (s *Server) handlePrefilter(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.withSession(w, r)
	if !ok {
		return
	}

	th, warnings := table.ParseThresholds(r.FormValue("min_rating"), r.FormValue("min_rating_count"))

	sess.mu.Lock()
	filtered, removed := table.PreFilter(sess.loaded, th)
	if r.FormValue("action") == "apply" {
		sess.filtered = filtered
		sess.removed = removed
		sess.resetClassification()
		sess.notice = fmt.Sprintf("Pre-filter applied: %d rows remaining.", filtered.Len())
	} else {
		sess.notice = fmt.Sprintf("Preview: %d rows would remain (%d removed).", filtered.Len(), removed)
	}
	if len(warnings) > 0 {
		sess.notice += " " + strings.Join(warnings, " ")
	}
	sess.mu.Unlock()

	http.Redirect(w, r, "/sessions/"+sess.id, http.StatusSeeOther)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.withSession(w, r)
	if !ok {
		return
	}

	keyword := strings.TrimSpace(r.FormValue("keyword"))
	if keyword == "" {
		http.Error(w, "search criteria is required", http.StatusBadRequest)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.resetClassification()
	sess.keyword = keyword

	categories := selection.DistinctCategories(sess.filtered, s.cfg.CategoryColumn)
	results := make(map[string]classify.Result, len(categories))
	remaining := categories

	if s.store != nil {
		hits, err := s.store.Lookup(keyword, s.cfg.LLMProvider, s.cfg.LLMModel, categories)
		if err != nil {
			log.Printf("web cache lookup err=%v", err)
		} else if len(hits) > 0 {
			remaining = remaining[:0:0]
			for _, cat := range categories {
				if res, ok := hits[cat]; ok {
					results[cat] = res
				} else {
					remaining = append(remaining, cat)
				}
			}
		}
	}

	fresh := s.classifier.Classify(r.Context(), remaining, keyword, nil)
	for cat, res := range fresh {
		results[cat] = res
		classificationsTotal.WithLabelValues(string(res.Status)).Inc()
	}
	if s.store != nil {
		if err := s.store.SaveResults(keyword, s.cfg.LLMProvider, s.cfg.LLMModel, fresh); err != nil {
			log.Printf("web cache save err=%v", err)
		}
	}

	sess.results = results
	sess.relevant = selection.RelevantRows(sess.filtered, s.cfg.CategoryColumn, results)
	candidates := selection.DistinctCategories(sess.relevant, s.cfg.CategoryColumn)
	if len(candidates) == 0 {
		sess.notice = "No relevant categories were found for this criteria."
		sess.final = sess.relevant
	} else {
		sess.state = selection.NewState(candidates)
		sess.notice = fmt.Sprintf("%d relevant categories found.", len(candidates))
	}

	log.Printf("web classify session=%s keyword=%q categories=%d cached=%d relevant_rows=%d",
		sess.id, keyword, len(categories), len(categories)-len(remaining), sess.relevant.Len())

	http.Redirect(w, r, "/sessions/"+sess.id, http.StatusSeeOther)
}

func (s *Server) handleRefine(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.withSession(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	sess.mu.Lock()
	if sess.state == nil {
		sess.mu.Unlock()
		http.Error(w, "nothing to refine: run classification first", http.StatusConflict)
		return
	}

	switch r.FormValue("action") {
	case "select_all":
		sess.state.SelectAll()
	case "deselect_all":
		sess.state.DeselectAll()
	case "use_all":
		sess.state.SelectAll()
		sess.final = sess.relevant
		sess.notice = "Using all categories marked as relevant by AI."
	default: // finalize from the checkbox set
		sess.state.DeselectAll()
		for _, cat := range r.Form["category"] {
			sess.state.Set(cat, true)
		}
		sess.final = sess.state.Finalize(sess.relevant, s.cfg.CategoryColumn)
		if sess.state.KeptCount() == 0 {
			sess.notice = "No categories selected: the export will be empty."
		} else {
			sess.notice = fmt.Sprintf("Manual filtering applied: %d categories selected.", sess.state.KeptCount())
		}
	}
	sess.mu.Unlock()

	http.Redirect(w, r, "/sessions/"+sess.id, http.StatusSeeOther)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.withSession(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	final := sess.final
	keyword := sess.keyword
	sourceName := sess.sourceName
	rowsIn := sess.loaded.Len()
	sess.mu.Unlock()

	if final == nil {
		http.Error(w, "nothing to export yet", http.StatusConflict)
		return
	}
	if keyword == "" {
		keyword = "prefiltered"
	}

	batch := r.FormValue("batch") == "1"
	rowsPerBatch := s.cfg.RowsPerBatch
	if raw := strings.TrimSpace(r.FormValue("rows_per_batch")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			rowsPerBatch = v
		}
	}

	base := export.BaseName(keyword)
	if batch {
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+".zip"))
		if err := export.WriteZip(w, final, rowsPerBatch); err != nil {
			log.Printf("web export session=%s err=%v", sess.id, err)
			return
		}
	} else {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+".csv"))
		if err := export.WriteCSV(w, final); err != nil {
			log.Printf("web export session=%s err=%v", sess.id, err)
			return
		}
	}
	exportsTotal.WithLabelValues(strconv.FormatBool(batch)).Inc()

	if s.store != nil {
		err := s.store.RecordRun(store.Run{
			SourceFile: sourceName,
			Keyword:    keyword,
			RowsIn:     rowsIn,
			RowsOut:    final.Len(),
			StartedAt:  time.Now(),
		})
		if err != nil {
			log.Printf("web record run err=%v", err)
		}
	}
	log.Printf("web export session=%s rows=%d batched=%v", sess.id, final.Len(), batch)
}
