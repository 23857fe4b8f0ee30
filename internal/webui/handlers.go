package webui

import (
	"encoding/json"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/fardiff/pkg/errors"
	"github.com/fardiff/pkg/utils"
)

// ReportEntry describes one HTML report found under the data directory.
type ReportEntry struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	URL      string    `json:"url"`
}

var indexTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"bytes": utils.FormatBytes,
	"when":  func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },
}).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>fardiff reports</title></head>
<body>
<h1>fardiff reports</h1>
{{if .}}<table>
<tr><th>Report</th><th>Size</th><th>Modified</th></tr>
{{range .}}<tr><td><a href="{{.URL}}">{{.Path}}</a></td><td>{{bytes .Size}}</td><td>{{when .Modified}}</td></tr>
{{end}}</table>{{else}}<p>No reports yet.</p>{{end}}
</body>
</html>
`))

// ListReports walks the data directory for *.html files, newest first.
func (s *Server) ListReports() ([]ReportEntry, error) {
	var reports []ReportEntry

	err := filepath.WalkDir(s.dataDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".html") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(s.dataDir, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		reports = append(reports, ReportEntry{
			Path:     rel,
			Name:     d.Name(),
			Size:     info.Size(),
			Modified: info.ModTime().UTC(),
			URL:      reportURL(rel),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(reports, func(i, j int) bool {
		if !reports[i].Modified.Equal(reports[j].Modified) {
			return reports[i].Modified.After(reports[j].Modified)
		}
		return reports[i].Path < reports[j].Path
	})
	return reports, nil
}

// reportURL maps a report path to its URL. The file server redirects
// .../index.html to its directory, so those link to the directory.
func reportURL(rel string) string {
	if path.Base(rel) == "index.html" {
		return "/reports/" + strings.TrimSuffix(rel, "index.html")
	}
	return "/reports/" + rel
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	reports, err := s.ListReports()
	if err != nil {
		s.logger.Error("Failed to list reports: %v", err)
		http.Error(w, "failed to list reports", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, reports); err != nil {
		s.logger.Error("Failed to render index: %v", err)
	}
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.ListReports()
	if err != nil {
		jsonError(w, "failed to list reports", http.StatusInternalServerError)
		return
	}
	if reports == nil {
		reports = []ReportEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		jsonError(w, "run history is disabled", http.StatusNotFound)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			jsonError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := s.history.List(r.Context(), r.URL.Query().Get("binary"), limit)
	if err != nil {
		s.logger.Error("Failed to list runs: %v", err)
		jsonError(w, "failed to list runs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		jsonError(w, "run history is disabled", http.StatusNotFound)
		return
	}

	run, err := s.history.GetByRunID(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		if apperrors.IsNotFound(err) {
			jsonError(w, err.Error(), http.StatusNotFound)
			return
		}
		jsonError(w, "failed to get run", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}
