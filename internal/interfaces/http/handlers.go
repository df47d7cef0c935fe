package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/doc-approval/internal/application/port"
	"github.com/garyjia/doc-approval/internal/application/service"
	"github.com/garyjia/doc-approval/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	documents      service.DocumentService
	templates      service.TemplateService
	artifacts      service.ArtifactService
	users          port.UserRepository
	health         HealthFunc
	maxUploadBytes int64
	logger         Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, maxUploadBytes int64, logger Logger) *Handlers {
	return &Handlers{
		documents:      services.Documents,
		templates:      services.Templates,
		artifacts:      services.Artifacts,
		users:          services.Users,
		health:         services.Health,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Version    string      `json:"version"`
	Components interface{} `json:"components,omitempty"`
}

// EditContentRequest is the body of PATCH /api/documents/:id
type EditContentRequest struct {
	Content *string `json:"content"`
}

// ActionRequest is the body of approve and reject
type ActionRequest struct {
	Comment string `json:"comment"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	status := http.StatusOK
	if h.health != nil {
		healthy, detail := h.health()
		response.Components = detail
		if !healthy {
			response.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, Response{
		Success: status == http.StatusOK,
		Data:    response,
	})
}

// ListUsers handles GET /api/users
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.respondError(c, "Failed to list users", err)
		return
	}
	ok(c, http.StatusOK, users)
}

// ListDocuments handles GET /api/documents
func (h *Handlers) ListDocuments(c *gin.Context) {
	principal, _ := principalFrom(c)
	docs, err := h.documents.List(c.Request.Context(), principal)
	if err != nil {
		h.respondError(c, "Failed to list documents", err)
		return
	}
	ok(c, http.StatusOK, docs)
}

// ListInbox handles GET /api/inbox
func (h *Handlers) ListInbox(c *gin.Context) {
	principal, _ := principalFrom(c)
	items, err := h.documents.Inbox(c.Request.Context(), principal)
	if err != nil {
		h.respondError(c, "Failed to list inbox", err)
		return
	}
	ok(c, http.StatusOK, items)
}

// CreateDocument handles POST /api/documents
func (h *Handlers) CreateDocument(c *gin.Context) {
	var req service.CreateDocumentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, "Invalid document body", invalidBody(err))
		return
	}

	principal, _ := principalFrom(c)
	doc, err := h.documents.Create(c.Request.Context(), principal, req)
	if err != nil {
		h.respondError(c, "Failed to create document", err)
		return
	}
	ok(c, http.StatusCreated, doc)
}

// GetDocument handles GET /api/documents/:id
func (h *Handlers) GetDocument(c *gin.Context) {
	doc, err := h.documents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "Failed to get document", err)
		return
	}
	ok(c, http.StatusOK, doc)
}

// EditContent handles PATCH /api/documents/:id
func (h *Handlers) EditContent(c *gin.Context) {
	var req EditContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, "Invalid edit body", invalidBody(err))
		return
	}
	if req.Content == nil {
		h.respondError(c, "Invalid edit body", fmt.Errorf("%w: content is required", workflow.ErrInvalidInput))
		return
	}

	principal, _ := principalFrom(c)
	doc, err := h.documents.EditContent(c.Request.Context(), principal, c.Param("id"), *req.Content)
	if err != nil {
		h.respondError(c, "Failed to edit document", err)
		return
	}
	ok(c, http.StatusOK, doc)
}

// SubmitDocument handles POST /api/documents/:id/submit
func (h *Handlers) SubmitDocument(c *gin.Context) {
	principal, _ := principalFrom(c)
	doc, err := h.documents.Submit(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		h.respondError(c, "Failed to submit document", err)
		return
	}
	ok(c, http.StatusOK, doc)
}

// ApproveDocument handles POST /api/documents/:id/approve. The body is optional.
func (h *Handlers) ApproveDocument(c *gin.Context) {
	req, err := bindAction(c)
	if err != nil {
		h.respondError(c, "Invalid approve body", err)
		return
	}

	principal, _ := principalFrom(c)
	doc, err := h.documents.Approve(c.Request.Context(), principal, c.Param("id"), req.Comment)
	if err != nil {
		h.respondError(c, "Failed to approve document", err)
		return
	}
	ok(c, http.StatusOK, doc)
}

// RejectDocument handles POST /api/documents/:id/reject
func (h *Handlers) RejectDocument(c *gin.Context) {
	req, err := bindAction(c)
	if err != nil {
		h.respondError(c, "Invalid reject body", err)
		return
	}

	principal, _ := principalFrom(c)
	doc, err := h.documents.Reject(c.Request.Context(), principal, c.Param("id"), req.Comment)
	if err != nil {
		h.respondError(c, "Failed to reject document", err)
		return
	}
	ok(c, http.StatusOK, doc)
}

// GenerateArtifact handles POST /api/documents/:id/generate
func (h *Handlers) GenerateArtifact(c *gin.Context) {
	principal, _ := principalFrom(c)
	doc, err := h.artifacts.Generate(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		h.respondError(c, "Failed to generate artifact", err)
		return
	}
	ok(c, http.StatusOK, doc)
}

// DocumentHistory handles GET /api/documents/:id/history
func (h *Handlers) DocumentHistory(c *gin.Context) {
	history, err := h.documents.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "Failed to get document history", err)
		return
	}
	ok(c, http.StatusOK, history)
}

// ListTemplates handles GET /api/templates
func (h *Handlers) ListTemplates(c *gin.Context) {
	templates, err := h.templates.List(c.Request.Context())
	if err != nil {
		h.respondError(c, "Failed to list templates", err)
		return
	}
	ok(c, http.StatusOK, templates)
}

// UploadTemplate handles POST /api/templates as multipart form with fields
// name, description and file
func (h *Handlers) UploadTemplate(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		h.respondError(c, "Invalid template upload", fmt.Errorf("%w: file is required", workflow.ErrInvalidInput))
		return
	}
	if h.maxUploadBytes > 0 && header.Size > h.maxUploadBytes {
		h.respondError(c, "Invalid template upload",
			fmt.Errorf("%w: file exceeds %d bytes", workflow.ErrInvalidInput, h.maxUploadBytes))
		return
	}

	f, err := header.Open()
	if err != nil {
		h.respondError(c, "Failed to open uploaded template", err)
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		h.respondError(c, "Failed to read uploaded template", err)
		return
	}

	tpl, err := h.templates.Upload(c.Request.Context(), service.UploadTemplateInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		FileName:    header.Filename,
		Content:     content,
	})
	if err != nil {
		h.respondError(c, "Failed to upload template", err)
		return
	}
	ok(c, http.StatusCreated, tpl)
}

// GetTemplate handles GET /api/templates/:id
func (h *Handlers) GetTemplate(c *gin.Context) {
	tpl, err := h.templates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "Failed to get template", err)
		return
	}
	ok(c, http.StatusOK, tpl)
}

// DeleteTemplate handles DELETE /api/templates/:id
func (h *Handlers) DeleteTemplate(c *gin.Context) {
	id := c.Param("id")
	if err := h.templates.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, "Failed to delete template", err)
		return
	}
	ok(c, http.StatusOK, gin.H{"id": id})
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Data:    data,
	})
}

// bindAction reads an optional ActionRequest body
func bindAction(c *gin.Context) (ActionRequest, error) {
	var req ActionRequest
	if c.Request.ContentLength == 0 {
		return req, nil
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, invalidBody(err)
	}
	req.Comment = strings.TrimSpace(req.Comment)
	return req, nil
}

func invalidBody(err error) error {
	return fmt.Errorf("%w: malformed request body: %v", workflow.ErrInvalidInput, err)
}

