// Package server serves the coaching dashboard and report API.
package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"

	"github.com/calldeck/calldeck/internal/database"
	"github.com/calldeck/calldeck/internal/logger"
	"github.com/calldeck/calldeck/internal/report"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server is the HTTP server for the coaching dashboard.
type Server struct {
	db        *database.DB
	companyID string
	pages     map[string]*template.Template
	mux       *http.ServeMux
}

// New creates a new Server scoped to one company.
func New(db *database.DB, companyID string) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown":   renderMarkdown,
		"formatWeek": database.FormatWeekDisplay,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of the base so {{define "content"}}
	// blocks do not collide.
	pageNames := []string{"index.html", "sdr.html", "report.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{db: db, companyID: companyID, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/sdr/", s.handleSDR)
	s.mux.HandleFunc("/report/", s.handleReport)
	s.mux.HandleFunc("/coaching/", s.handleCoachingStatus)
	s.mux.HandleFunc("/api/reports", s.handleAPIReports)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	sdrs, err := s.db.GetSDRsForCompany(s.companyID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	reports, err := s.db.QueryReports(database.ReportFilter{CompanyID: s.companyID})
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	s.render(w, "index.html", map[string]any{
		"SDRs":    sdrs,
		"Reports": reports,
		"Names":   s.sdrNames(sdrs),
	})
}

// handleSDR shows one SDR's report history: /sdr/{id}
func (s *Server) handleSDR(w http.ResponseWriter, r *http.Request) {
	sdrID := strings.TrimPrefix(r.URL.Path, "/sdr/")
	if sdrID == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	reports, err := s.db.QueryReports(database.ReportFilter{CompanyID: s.companyID, SDRID: &sdrID})
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	s.render(w, "sdr.html", map[string]any{
		"SDRID":   sdrID,
		"Reports": reports,
	})
}

// handleReport shows one weekly report: /report/{sdr}/{year}/{week}
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/report/"), "/")
	if len(parts) != 3 {
		http.NotFound(w, r)
		return
	}
	sdrID := parts[0]
	year, err1 := strconv.Atoi(parts[1])
	week, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil {
		http.NotFound(w, r)
		return
	}

	rep, err := s.db.GetReport(sdrID, week, year)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if rep == nil || rep.CompanyID != s.companyID {
		http.NotFound(w, r)
		return
	}

	name := sdrID
	if sdr, err := s.db.GetSDR(sdrID); err != nil {
		s.internalError(w, r, err)
		return
	} else if sdr != nil {
		name = sdr.Name
	}

	s.render(w, "report.html", map[string]any{
		"Report": rep,
		"Body":   report.Markdown(rep, name),
	})
}

// handleCoachingStatus transitions a coaching item: POST /coaching/{id}/status
func (s *Server) handleCoachingStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/coaching/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[1] != "status" {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	status := strings.TrimSpace(r.FormValue("status"))
	if err := s.db.UpdateCoachingStatus(id, status); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, localPath(r.FormValue("back")), http.StatusFound)
}

// localPath sanitizes a post-action redirect target, allowing only paths on
// this server. "//host" is scheme-relative and would leave it.
func localPath(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return "/"
	}
	return p
}

// handleAPIReports serves reports as JSON: /api/reports?sdr=&week=&year=
func (s *Server) handleAPIReports(w http.ResponseWriter, r *http.Request) {
	filter := database.ReportFilter{CompanyID: s.companyID}
	if v := r.URL.Query().Get("sdr"); v != "" {
		filter.SDRID = &v
	}
	if v := r.URL.Query().Get("week"); v != "" {
		week, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "bad week", http.StatusBadRequest)
			return
		}
		filter.WeekNumber = &week
	}
	if v := r.URL.Query().Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "bad year", http.StatusBadRequest)
			return
		}
		filter.Year = &year
	}

	reports, err := s.db.QueryReports(filter)
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(apiReports(reports)); err != nil {
		logger.WithRequest(r).WithError(err).Error("encoding reports")
	}
}

// apiReport is the JSON wire shape for a weekly report.
type apiReport struct {
	SDRID                  string  `json:"sdr_id"`
	WeekNumber             int     `json:"week_number"`
	Year                   int     `json:"year"`
	CallsAnalyzed          int     `json:"calls_analyzed"`
	AvgScores              any     `json:"avg_scores"`
	BestCallID             *string `json:"best_call_id"`
	WorstCallID            *string `json:"worst_call_id"`
	ComparisonWithPrevious any     `json:"comparison_with_previous"`
	CoachingImpact         any     `json:"coaching_impact"`
	Summary                string  `json:"summary"`
}

func apiReports(reports []database.WeeklyReport) []apiReport {
	out := make([]apiReport, 0, len(reports))
	for _, r := range reports {
		out = append(out, apiReport{
			SDRID:                  r.SDRID,
			WeekNumber:             r.WeekNumber,
			Year:                   r.Year,
			CallsAnalyzed:          r.CallsAnalyzed,
			AvgScores:              r.AvgScores,
			BestCallID:             r.BestCallID,
			WorstCallID:            r.WorstCallID,
			ComparisonWithPrevious: r.ComparisonWithPrevious,
			CoachingImpact:         r.CoachingImpact,
			Summary:                r.Summary,
		})
	}
	return out
}

func (s *Server) sdrNames(sdrs []database.SDR) map[string]string {
	names := make(map[string]string, len(sdrs))
	for _, sdr := range sdrs {
		names[sdr.ID] = sdr.Name
	}
	return names
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	logger.WithRequest(r).WithError(err).Error("request failed")
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		logrus.Errorf("template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		logrus.WithError(err).Errorf("rendering template %s", name)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port.
func Serve(db *database.DB, companyID string, port int) error {
	srv, err := New(db, companyID)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	logrus.Infof("dashboard listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
