package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kirillkom/masters-advisor/internal/config"
	"github.com/kirillkom/masters-advisor/internal/core/domain"
	"github.com/kirillkom/masters-advisor/internal/core/ports"
	"github.com/kirillkom/masters-advisor/internal/core/usecase"
	"github.com/kirillkom/masters-advisor/internal/observability/metrics"
)

const (
	serviceName      = "advisor-api"
	maxRequestBytes  = 64 << 10
	backpressureWait = 250 * time.Millisecond
)

type Router struct {
	cfg         config.Config
	answerer    ports.QuestionAnswerer
	recommender ports.ElectiveRecommender
	catalog     ports.ProgramCatalog
	metrics     *metrics.HTTPServerMetrics
	validate    *validator.Validate
}

// NewRouter builds the HTTP adapter. m may be nil.
func NewRouter(
	cfg config.Config,
	answerer ports.QuestionAnswerer,
	recommender ports.ElectiveRecommender,
	catalog ports.ProgramCatalog,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:         cfg,
		answerer:    answerer,
		recommender: recommender,
		catalog:     catalog,
		metrics:     m,
		validate:    validator.New(),
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}
	mux.HandleFunc("GET /v1/programs", rt.listPrograms)
	mux.HandleFunc("GET /v1/programs/{title}/plan", rt.studyPlan)
	mux.HandleFunc("POST /v1/ask", rt.ask)
	mux.HandleFunc("POST /v1/recommend", rt.recommend)
	mux.HandleFunc("POST /v1/compare", rt.compare)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, backpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type askRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
	Program  string `json:"program" validate:"max=300"`
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !rt.decode(w, r, &req) {
		return
	}
	var programTitle string
	if strings.TrimSpace(req.Program) != "" {
		program, err := rt.catalog.Get(req.Program)
		if err != nil {
			writeError(w, err)
			return
		}
		programTitle = program.Title
	}

	start := time.Now()
	answer, err := rt.answerer.Ask(r.Context(), domain.AskRequest{Question: req.Question, Program: programTitle})
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordAnswer("ask", answer, time.Since(start))
	}
	writeJSON(w, http.StatusOK, answer)
}

type recommendRequest struct {
	Background string `json:"background" validate:"required,max=4000"`
	Program    string `json:"program" validate:"required,max=300"`
	TopK       int    `json:"top_k" validate:"omitempty,min=1,max=50"`
}

type recommendResponse struct {
	Program   string            `json:"program"`
	Score     float64           `json:"score"`
	Electives []domain.Elective `json:"electives"`
}

func (rt *Router) recommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if !rt.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Background) == "" {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "recommend", errors.New("background is empty")))
		return
	}
	program, err := rt.catalog.Get(req.Program)
	if err != nil {
		writeError(w, err)
		return
	}

	topK := firstPositive(req.TopK, rt.cfg.RecommendTopK, usecase.DefaultRecommendTopK)
	score, electives := rt.recommender.ScoreProgram(req.Background, program, topK)
	if electives == nil {
		electives = []domain.Elective{}
	}
	if rt.metrics != nil {
		rt.metrics.RecordRecommend("recommend", "electives")
	}
	writeJSON(w, http.StatusOK, recommendResponse{Program: program.Title, Score: score, Electives: electives})
}

type compareRequest struct {
	Background string   `json:"background" validate:"required,max=4000"`
	Programs   []string `json:"programs" validate:"omitempty,max=20,dive,required"`
	TopK       int      `json:"top_k" validate:"omitempty,min=1,max=50"`
	Limit      int      `json:"limit" validate:"omitempty,min=1,max=20"`
}

func (rt *Router) compare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if !rt.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Background) == "" {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "compare", errors.New("background is empty")))
		return
	}

	programs := rt.catalog.List()
	if len(req.Programs) > 0 {
		programs = make([]domain.Program, 0, len(req.Programs))
		for _, title := range req.Programs {
			p, err := rt.catalog.Get(title)
			if err != nil {
				writeError(w, err)
				return
			}
			programs = append(programs, p)
		}
	}

	topK := firstPositive(req.TopK, rt.cfg.CompareTopK, usecase.DefaultCompareTopK)
	limit := firstPositive(req.Limit, rt.cfg.CompareLimit, usecase.DefaultCompareLimit)
	fits := rt.recommender.ComparePrograms(req.Background, programs, topK, limit)
	if rt.metrics != nil {
		rt.metrics.RecordRecommend("compare", "programs")
	}
	writeJSON(w, http.StatusOK, map[string]any{"programs": fits})
}

type programSummary struct {
	Title    string `json:"title"`
	URL      string `json:"url,omitempty"`
	Degree   string `json:"degree,omitempty"`
	Language string `json:"language,omitempty"`
	Duration string `json:"duration,omitempty"`
	Tuition  string `json:"tuition,omitempty"`
	Courses  int    `json:"courses"`
}

func (rt *Router) listPrograms(w http.ResponseWriter, _ *http.Request) {
	programs := rt.catalog.List()
	out := make([]programSummary, 0, len(programs))
	for _, p := range programs {
		out = append(out, programSummary{
			Title:    p.Title,
			URL:      p.URL,
			Degree:   p.Degree,
			Language: p.Language,
			Duration: p.Duration,
			Tuition:  p.Tuition,
			Courses:  len(p.Curriculum),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"programs": out})
}

func (rt *Router) studyPlan(w http.ResponseWriter, r *http.Request) {
	program, err := rt.catalog.Get(r.PathValue("title"))
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordRecommend("plan", "study_plan")
	}
	writeJSON(w, http.StatusOK, usecase.StudyPlan(program, usecase.DefaultPlanLimit))
}

// decode reads a bounded JSON body and validates it. On failure the error
// response is already written.
func (rt *Router) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return false
	}
	if err := rt.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": validationFields(verrs),
			})
			return false
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func validationFields(errs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			fields[field] = fmt.Sprintf("%s is required", field)
		case "min", "max":
			fields[field] = fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param())
		default:
			fields[field] = fmt.Sprintf("%s validation failed on '%s' tag", field, fe.Tag())
		}
	}
	return fields
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
