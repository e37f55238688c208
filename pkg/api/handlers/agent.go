// Package handlers provides HTTP request handlers.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pantryplay/pantryplay/pkg/agent"
	"github.com/pantryplay/pantryplay/pkg/api/middleware"
	"github.com/pantryplay/pantryplay/pkg/api/response"
	"github.com/pantryplay/pantryplay/pkg/logger"
	"github.com/pantryplay/pantryplay/pkg/task"
)

const (
	// DefaultMaxUploadBytes bounds request bodies when no limit is configured.
	DefaultMaxUploadBytes = 10 << 20

	maxJSONBodyBytes     = 1 << 20
	defaultDocumentInput = "What can I cook with these ingredients?"
)

// ProcessRequest is the body of POST /api/v1/agent/process.
type ProcessRequest struct {
	Input   string         `json:"input" validate:"required,max=4000"`
	Context map[string]any `json:"context,omitempty"`
}

// AgentHandler exposes the agent over HTTP.
type AgentHandler struct {
	agent          *agent.Agent
	logger         logger.Logger
	validator      *validator.Validate
	maxUploadBytes int64
}

// NewAgentHandler creates an agent handler. maxUploadBytes <= 0 uses
// DefaultMaxUploadBytes.
func NewAgentHandler(a *agent.Agent, log logger.Logger, maxUploadBytes int64) *AgentHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &AgentHandler{
		agent:          a,
		logger:         log.With("handler", "agent"),
		validator:      newValidator(),
		maxUploadBytes: maxUploadBytes,
	}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Process handles POST /api/v1/agent/process.
func (h *AgentHandler) Process(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ProcessRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Input = strings.TrimSpace(req.Input)
	if err := h.validator.Struct(&req); err != nil {
		response.ErrorWithDetails(w, http.StatusBadRequest, response.ErrCodeValidationFailed,
			"Invalid request", validationDetails(err), middleware.GetRequestID(ctx))
		return
	}

	resp := h.agent.ProcessInput(ctx, req.Input, task.Context(req.Context))
	response.JSON(w, http.StatusOK, resp)
}

// ProcessDocument handles POST /api/v1/agent/documents. The multipart form
// carries the document in "file" and an optional request in "input".
func (h *AgentHandler) ProcessDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.ContentLength > h.maxUploadBytes {
		h.tooLarge(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.tooLarge(w, r)
			return
		}
		badRequest(w, r, response.ErrCodeBadRequest, "Invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, r, response.ErrCodeValidationFailed, "A document is required in the \"file\" field")
		return
	}
	defer file.Close()

	input := strings.TrimSpace(r.FormValue("input"))
	if input == "" {
		input = defaultDocumentInput
	}

	var tctx task.Context
	if raw := r.FormValue("context"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &tctx); err != nil {
			badRequest(w, r, response.ErrCodeBadRequest, "Invalid context field")
			return
		}
	}

	resp, err := h.agent.ProcessDocument(ctx, input, header.Filename, file, tctx)
	if err != nil {
		writeError(w, r, h.logger, "failed to process document", err)
		return
	}
	response.JSON(w, http.StatusOK, resp)
}

func (h *AgentHandler) tooLarge(w http.ResponseWriter, r *http.Request) {
	response.Error(w, http.StatusRequestEntityTooLarge, response.ErrCodePayloadTooLarge,
		"Upload exceeds the size limit", middleware.GetRequestID(r.Context()))
}

// decodeJSON reads a JSON body. It writes the error response and returns
// false when the body is unusable.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, response.ErrCodePayloadTooLarge,
				"Request body too large", middleware.GetRequestID(r.Context()))
			return false
		}
		badRequest(w, r, response.ErrCodeBadRequest, "Invalid request body")
		return false
	}
	return true
}
