// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package docgraph

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tidewaterhq/docgraph/services/docgraph/model"
	"github.com/tidewaterhq/docgraph/services/docgraph/serialize"
	"github.com/tidewaterhq/docgraph/services/docgraph/store"
)

// ErrorResponse is the error body for every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// BuildRequest is the body of POST /v1/docs/build.
type BuildRequest struct {
	// Name is the project display name.
	Name string `json:"name" binding:"required"`

	// Root is the source directory to document.
	Root string `json:"root" binding:"required"`
}

// BuildResponse summarizes a completed build.
type BuildResponse struct {
	RunID       string             `json:"run_id"`
	Files       int                `json:"files"`
	Reflections int                `json:"reflections"`
	Diagnostics []model.Diagnostic `json:"diagnostics,omitempty"`
	ParseErrors map[string]string  `json:"parse_errors,omitempty"`
	DurationMS  int64              `json:"duration_ms"`
}

// ProjectSummary is one entry of GET /v1/docs/projects.
type ProjectSummary struct {
	RunID       string `json:"run_id"`
	Name        string `json:"name"`
	Root        string `json:"root"`
	Reflections int    `json:"reflections"`
	Diagnostics int    `json:"diagnostics"`
	BuiltAtMS   int64  `json:"built_at_ms"`
}

// Handlers carries the HTTP handlers over a Service.
type Handlers struct {
	service *Service
}

// NewHandlers creates the handler set.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

func getOrCreateRequestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

// HandleBuild handles POST /v1/docs/build.
//
// Description:
//
//	Runs the full documentation pipeline over the requested source
//	root and caches the resulting graph. Non-fatal conversion and
//	resolution problems are returned as diagnostics, not errors.
//
// Response:
//
//	200 OK: BuildResponse
//	400 Bad Request: Missing name or root
//	500 Internal Server Error: Walk failure or empty tree
func (h *Handlers) HandleBuild(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleBuild")

	var req BuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "name and root are required",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	out, err := h.service.Build(c.Request.Context(), req.Name, req.Root)
	if err != nil {
		logger.Error("build failed", slog.String("root", req.Root), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "BUILD_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, BuildResponse{
		RunID:       out.Project.RunID,
		Files:       out.FilesParsed,
		Reflections: out.Project.Registry.Len(),
		Diagnostics: out.Diagnostics,
		ParseErrors: out.ParseErrors,
		DurationMS:  out.Convert.Duration.Milliseconds() + out.Resolve.Duration.Milliseconds(),
	})
}

// HandleListProjects handles GET /v1/docs/projects.
func (h *Handlers) HandleListProjects(c *gin.Context) {
	builds := h.service.List()
	out := make([]ProjectSummary, 0, len(builds))
	for _, b := range builds {
		out = append(out, ProjectSummary{
			RunID:       b.Project.RunID,
			Name:        b.Project.Name,
			Root:        b.Project.ProjectRoot,
			Reflections: b.Project.Registry.Len(),
			Diagnostics: len(b.Diagnostics),
			BuiltAtMS:   b.BuiltAt.UnixMilli(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"projects": out})
}

// resolveBuild finds the requested build or writes a 404.
func (h *Handlers) resolveBuild(c *gin.Context) (*BuildOutput, bool) {
	out, ok := h.service.Get(c.Query("run_id"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "no built project available",
			Code:  "PROJECT_NOT_FOUND",
		})
		return nil, false
	}
	return out, true
}

// HandleGetReflection handles GET /v1/docs/reflections/:id.
//
// Response:
//
//	200 OK: The serialized reflection
//	400 Bad Request: Non-numeric id
//	404 Not Found: Unknown id or no built project
func (h *Handlers) HandleGetReflection(c *gin.Context) {
	out, ok := h.resolveBuild(c)
	if !ok {
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "id must be an integer",
			Code:  "INVALID_PARAMETER",
		})
		return
	}

	decl, found := out.Index.ByID(model.ReflectionID(id))
	if !found {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "reflection not found",
			Code:  "REFLECTION_NOT_FOUND",
		})
		return
	}

	doc := serialize.Serialize(out.Project, nil)
	for _, sr := range doc.Reflections {
		if sr.ID == int(decl.ID) {
			c.JSON(http.StatusOK, sr)
			return
		}
	}
	c.JSON(http.StatusNotFound, ErrorResponse{
		Error: "reflection not found",
		Code:  "REFLECTION_NOT_FOUND",
	})
}

// HandleSearch handles GET /v1/docs/search.
//
// Query Parameters:
//
//	q: Substring to match against declaration names (required)
//	limit: Maximum results, default 50 (optional)
//	run_id: Build to search, default latest (optional)
func (h *Handlers) HandleSearch(c *gin.Context) {
	out, ok := h.resolveBuild(c)
	if !ok {
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "q parameter is required",
			Code:  "MISSING_PARAMETER",
		})
		return
	}

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	type hit struct {
		ID     int    `json:"id"`
		Name   string `json:"name"`
		Kind   string `json:"kind"`
		Symbol string `json:"symbol,omitempty"`
	}
	matches := out.Index.Search(query, limit)
	hits := make([]hit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, hit{
			ID:     int(m.ID),
			Name:   m.Name,
			Kind:   m.Kind.String(),
			Symbol: m.SymbolID,
		})
	}
	c.JSON(http.StatusOK, gin.H{"hits": hits, "total": len(hits)})
}

// HandleExport handles GET /v1/docs/export, returning the full
// serialized graph.
func (h *Handlers) HandleExport(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleExport")

	out, ok := h.resolveBuild(c)
	if !ok {
		return
	}

	data, err := serialize.Encode(out.Project, out.Diagnostics)
	if err != nil {
		logger.Error("export failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "serialization failed",
			Code:  "EXPORT_FAILED",
		})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// HandleListSnapshots handles GET /v1/docs/snapshots.
func (h *Handlers) HandleListSnapshots(c *gin.Context) {
	snaps := h.service.Snapshots()
	if snaps == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "snapshot storage is disabled",
			Code:  "STORAGE_DISABLED",
		})
		return
	}

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	metas, err := snaps.List(c.Request.Context(), c.Query("project_hash"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "LIST_FAILED",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": metas})
}

// HandleDiffSnapshots handles GET /v1/docs/snapshots/diff.
//
// Query Parameters:
//
//	base: Base snapshot id (required)
//	target: Target snapshot id (required)
func (h *Handlers) HandleDiffSnapshots(c *gin.Context) {
	snaps := h.service.Snapshots()
	if snaps == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "snapshot storage is disabled",
			Code:  "STORAGE_DISABLED",
		})
		return
	}

	base, target := c.Query("base"), c.Query("target")
	if base == "" || target == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "base and target parameters are required",
			Code:  "MISSING_PARAMETER",
		})
		return
	}

	diff, err := snaps.Diff(c.Request.Context(), base, target)
	if err != nil {
		status := http.StatusInternalServerError
		code := "DIFF_FAILED"
		if errors.Is(err, store.ErrSnapshotNotFound) {
			status = http.StatusNotFound
			code = "SNAPSHOT_NOT_FOUND"
		}
		c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
		return
	}
	c.JSON(http.StatusOK, diff)
}

// HandleDeleteSnapshot handles DELETE /v1/docs/snapshots/:id.
func (h *Handlers) HandleDeleteSnapshot(c *gin.Context) {
	snaps := h.service.Snapshots()
	if snaps == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "snapshot storage is disabled",
			Code:  "STORAGE_DISABLED",
		})
		return
	}

	err := snaps.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrSnapshotNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "snapshot not found",
			Code:  "SNAPSHOT_NOT_FOUND",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  "DELETE_FAILED",
		})
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleHealth handles GET /v1/docs/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleReady handles GET /v1/docs/ready.
func (h *Handlers) HandleReady(c *gin.Context) {
	_, ok := h.service.Get("")
	c.JSON(http.StatusOK, gin.H{"status": "ok", "has_project": ok})
}
