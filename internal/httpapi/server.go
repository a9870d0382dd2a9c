// Copyright 2026 The Checkview Authors
// SPDX-License-Identifier: MIT

// Package httpapi serves the issue table, request results and LPA overview
// views as JSON over gin.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davetashner/checkview/internal/gateway"
	"github.com/davetashner/checkview/internal/issuetable"
	"github.com/davetashner/checkview/internal/pagination"
	"github.com/davetashner/checkview/internal/perfdb"
	"github.com/davetashner/checkview/internal/pipeline"
	"github.com/davetashner/checkview/internal/redact"
	"github.com/davetashner/checkview/internal/results"
)

// Server holds the collaborators the handlers share. It is safe for
// concurrent use once built.
type Server struct {
	// Engine runs the issue table pipeline; its Fetcher also serves the
	// overview query.
	Engine *pipeline.Engine
	Deps   issuetable.Deps
	// Results is nil when no validation API is configured.
	Results results.Accessor
	Logger  *slog.Logger
}

// ErrorBody is the JSON body of every failed request.
type ErrorBody struct {
	Error   pipeline.FailureKind `json:"error"`
	Message string               `json:"message"`
}

// errNoAPI is reported when results are requested without an API.
var errNoAPI = errors.New("no validation api configured")

// Router returns a gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests())

	r.GET("/healthz", s.health)

	org := r.Group("/organisations")
	{
		org.GET("/:lpa", s.overview)
		org.GET("/:lpa/:dataset/:issue_type/:issue_field", s.issueTable)
		org.GET("/:lpa/:dataset/:issue_type/:issue_field/:page", s.issueTable)
	}

	res := r.Group("/results")
	{
		res.GET("/:id", s.results)
		res.GET("/:id/:page", s.results)
	}
	return r
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger().Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) health(c *gin.Context) {
	if s.Deps.Messages == nil || !s.Deps.Messages.IsReady() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "starting"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) issueTable(c *gin.Context) {
	p := issuetable.Params{
		LPA:        c.Param("lpa"),
		Dataset:    c.Param("dataset"),
		IssueType:  c.Param("issue_type"),
		IssueField: c.Param("issue_field"),
		PageNumber: c.Param("page"),
		ResourceID: c.Query(issuetable.ParamResourceID),
	}

	view, out := issuetable.Run(c.Request.Context(), s.Engine, s.Deps, p)
	switch out.State {
	case pipeline.StateCompleted:
		c.JSON(http.StatusOK, view)
	case pipeline.StateHalted:
		if out.Halt.Location != "" {
			c.Redirect(http.StatusFound, out.Halt.Location)
			return
		}
		c.Status(http.StatusNoContent)
	default:
		s.fail(c, out.Err)
	}
}

func (s *Server) results(c *gin.Context) {
	if s.Results == nil {
		s.fail(c, errNoAPI)
		return
	}
	id := c.Param("id")
	out, err := results.Decide(c.Request.Context(), s.Results, s.Deps.Pager(), id, pagination.ParsePage(c.Param("page")))
	if err != nil {
		s.fail(c, err)
		return
	}
	if out.Kind == results.KindRedirect {
		c.Redirect(http.StatusFound, out.Location)
		return
	}
	c.JSON(http.StatusOK, out.View)
}

func (s *Server) overview(c *gin.Context) {
	recs, err := s.Engine.Fetcher.Fetch(c.Request.Context(),
		perfdb.LpaOverview(c.Param("lpa"), c.QueryArray("dataset")))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, perfdb.ParseOverview(recs))
}

// fail writes err as an ErrorBody with the status its failure kind maps to.
func (s *Server) fail(c *gin.Context, err error) {
	kind := pipeline.Classify(err)
	status := StatusFor(kind)
	msg := redact.String(err.Error())

	var herr *gateway.HTTPError
	if errors.As(err, &herr) {
		msg = herr.Message()
		if herr.StatusCode == http.StatusNotFound {
			status = http.StatusNotFound
		}
	}
	if errors.Is(err, errNoAPI) {
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		s.logger().Error("request failed", "path", c.Request.URL.Path, "failure", kind, "error", redact.String(err.Error()))
	}
	c.AbortWithStatusJSON(status, ErrorBody{Error: kind, Message: msg})
}

// StatusFor maps a failure kind onto an HTTP status.
func StatusFor(kind pipeline.FailureKind) int {
	switch kind {
	case pipeline.FailureInvalidParams:
		return http.StatusBadRequest
	case pipeline.FailureNotFound:
		return http.StatusNotFound
	case pipeline.FailureMalformed:
		return http.StatusUnprocessableEntity
	case pipeline.FailureUpstream:
		return http.StatusBadGateway
	case pipeline.FailureCanceled:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Serve runs the router on addr until ctx is done, then shuts down,
// letting in-flight requests finish.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger().Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
