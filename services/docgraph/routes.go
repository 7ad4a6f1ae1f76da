// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package docgraph

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all Docgraph routes with the router.
//
// Description:
//
//	Registers all /v1/docs/* endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Build Endpoints:
//
//	POST /v1/docs/build - Build a documentation graph from source
//	GET  /v1/docs/projects - List cached builds
//
// Query Endpoints:
//
//	GET  /v1/docs/reflections/:id - Get a reflection by id
//	GET  /v1/docs/search - Search declarations by name
//	GET  /v1/docs/export - Export the full serialized graph
//
// Snapshot Endpoints:
//
//	GET    /v1/docs/snapshots - List stored snapshots
//	GET    /v1/docs/snapshots/diff - Compare two snapshots
//	DELETE /v1/docs/snapshots/:id - Delete a snapshot
//
// Health Endpoints:
//
//	GET /v1/docs/health - Liveness check
//	GET /v1/docs/ready - Readiness check
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	docs := rg.Group("/docs")
	{
		docs.POST("/build", handlers.HandleBuild)
		docs.GET("/projects", handlers.HandleListProjects)

		docs.GET("/reflections/:id", handlers.HandleGetReflection)
		docs.GET("/search", handlers.HandleSearch)
		docs.GET("/export", handlers.HandleExport)

		docs.GET("/snapshots", handlers.HandleListSnapshots)
		docs.GET("/snapshots/diff", handlers.HandleDiffSnapshots)
		docs.DELETE("/snapshots/:id", handlers.HandleDeleteSnapshot)

		docs.GET("/health", handlers.HandleHealth)
		docs.GET("/ready", handlers.HandleReady)
	}
}
