package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/swisspipe/swisspipe/core/versions"
)

func (s *Server) listVersions(c echo.Context) error {
	workflowID := c.Param("workflow_id")

	perPage := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		perPage = n
	}

	history, err := s.versions.ListVersions(workflowID, c.QueryParam("cursor"), perPage)
	if err != nil {
		return httpError(c, err)
	}

	return jsonData(c, http.StatusOK, history)
}

func (s *Server) createVersion(c echo.Context) error {
	workflowID := c.Param("workflow_id")

	req := versions.CreateVersionRequest{}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	version, err := s.versions.CreateVersion(workflowID, req, currentUser(c).Sub)
	if err != nil {
		return httpError(c, err)
	}

	return jsonData(c, http.StatusCreated, version)
}

func (s *Server) getVersion(c echo.Context) error {
	version, err := s.versions.GetVersion(c.Param("workflow_id"), c.Param("version_id"))
	if err != nil {
		return httpError(c, err)
	}

	return jsonData(c, http.StatusOK, version)
}

func (s *Server) deleteVersions(c echo.Context) error {
	deleted, err := s.versions.DeleteWorkflowVersions(c.Param("workflow_id"))
	if err != nil {
		return httpError(c, err)
	}

	return jsonData(c, http.StatusOK, map[string]int64{"deleted": deleted})
}
