// Package apiv1 serves the versioned job API.
package apiv1

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"dubbing-orchestrator/internal/domain"
	"dubbing-orchestrator/internal/domain/model"
	"dubbing-orchestrator/internal/infra/logging"
	"dubbing-orchestrator/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// multipart parts beyond this size spill to temp files
const maxMemory = 32 << 20

type Server struct {
	jobs      usecase.JobUseCase
	maxUpload int64
	auth      func(http.Handler) http.Handler
	validate  *validator.Validate
	log       *zerolog.Logger
}

type Options struct {
	// MaxUploadBytes caps the submit request body; 0 disables the cap.
	MaxUploadBytes int64
	// Auth guards the /jobs routes when set.
	Auth   func(http.Handler) http.Handler
	Logger *zerolog.Logger
}

func NewServer(jobs usecase.JobUseCase, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]; name != "" {
			return name
		}
		return f.Name
	})
	return &Server{
		jobs:      jobs,
		maxUpload: opts.MaxUploadBytes,
		auth:      opts.Auth,
		validate:  v,
		log:       logger,
	}
}

// RegisterAPIV1 mounts the routes relative to r; callers mount r under the
// API prefix.
func RegisterAPIV1(r chi.Router, s *Server) {
	r.Group(func(r chi.Router) {
		if s.auth != nil {
			r.Use(s.auth)
		}
		r.Post("/jobs", s.CreateJob)
		r.Get("/jobs", s.ListJobs)
		r.Get("/jobs/{id}", s.GetJob)
	})
	r.Get("/languages", s.ListLanguages)
}

// ---- wire types ----

type CreateJobResponse struct {
	ID     string          `json:"id"`
	Status model.JobStatus `json:"status"`
}

type JobSummary struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Status         model.JobStatus `json:"status"`
	SourceLanguage string          `json:"source_language"`
	TargetLanguage string          `json:"target_language"`
	CreatedAt      time.Time       `json:"created_at"`
}

type JobDetail struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Status           model.JobStatus `json:"status"`
	SourceLanguage   string          `json:"source_language"`
	TargetLanguage   string          `json:"target_language"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	OriginalFilename string          `json:"original_filename"`
	ErrorMessage     string          `json:"error_message,omitempty"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

func toSummary(j *model.Job) JobSummary {
	return JobSummary{
		ID:             j.ID,
		Title:          j.Title,
		Status:         j.Status,
		SourceLanguage: j.SourceLanguage,
		TargetLanguage: j.TargetLanguage,
		CreatedAt:      j.CreatedAt,
	}
}

func toDetail(j *model.Job) JobDetail {
	return JobDetail{
		ID:               j.ID,
		Title:            j.Title,
		Status:           j.Status,
		SourceLanguage:   j.SourceLanguage,
		TargetLanguage:   j.TargetLanguage,
		CreatedAt:        j.CreatedAt,
		UpdatedAt:        j.UpdatedAt,
		OriginalFilename: j.OriginalFilename,
		ErrorMessage:     j.ErrorMessage,
	}
}

// submitForm holds the multipart fields of a job submission.
type submitForm struct {
	Title          string `form:"title" validate:"required"`
	SourceLanguage string `form:"source_language" validate:"required"`
	TargetLanguage string `form:"target_language" validate:"required"`
	Video          string `form:"video" validate:"required"`
}

// cappedBody remembers whether the size cap was hit; the multipart reader
// does not always wrap the underlying read error.
type cappedBody struct {
	io.ReadCloser
	exceeded bool
}

func (b *cappedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		b.exceeded = true
	}
	return n, err
}

// ---- handlers ----

func (s *Server) CreateJob(w http.ResponseWriter, r *http.Request) {
	var body *cappedBody
	if s.maxUpload > 0 {
		if r.ContentLength > s.maxUpload {
			writeError(w, r, http.StatusRequestEntityTooLarge, "Upload too large")
			return
		}
		body = &cappedBody{ReadCloser: http.MaxBytesReader(w, r.Body, s.maxUpload)}
		r.Body = body
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || (body != nil && body.exceeded) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "Upload too large")
			return
		}
		writeError(w, r, http.StatusUnprocessableEntity, "Expected a multipart/form-data body: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	form := submitForm{
		Title:          r.FormValue("title"),
		SourceLanguage: r.FormValue("source_language"),
		TargetLanguage: r.FormValue("target_language"),
	}
	file, header, err := r.FormFile("video")
	if err == nil {
		defer file.Close()
		form.Video = header.Filename
	}
	if err := s.validate.Struct(form); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, validationDetail(err))
		return
	}

	var media io.Reader
	if file != nil {
		media = file
	}
	job, err := s.jobs.Submit(r.Context(), usecase.SubmitJobInput{
		Title:          form.Title,
		SourceLanguage: form.SourceLanguage,
		TargetLanguage: form.TargetLanguage,
		Filename:       form.Video,
		Media:          media,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, CreateJobResponse{ID: job.ID, Status: job.Status})
}

func (s *Server) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.jobs.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]JobSummary, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toSummary(j))
	}
	render.JSON(w, r, out)
}

func (s *Server) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, toDetail(job))
}

func (s *Server) ListLanguages(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.jobs.SupportedLanguages())
}

// ---- error mapping ----

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "Job not found")
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrQueueClosed):
		writeError(w, r, http.StatusServiceUnavailable, "Service is shutting down")
	default:
		l := logging.With(r.Context(), s.log)
		l.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, detail string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Detail: detail})
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return fmt.Sprintf("Missing required field(s): %s", strings.Join(missing, ", "))
}
