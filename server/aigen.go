package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/swisspipe/swisspipe/core/aigen"
	"github.com/swisspipe/swisspipe/core/jobqueue"
)

type jobHandle struct {
	JobID  uint64             `json:"job_id"`
	Status jobqueue.JobStatus `json:"status"`
}

// generateCode produces a JavaScript transform snippet. With ?async=true the
// request is queued and a job handle returned instead.
func (s *Server) generateCode(c echo.Context) error {
	req := aigen.GenerateCodeRequest{}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if c.QueryParam("async") == "true" {
		return s.enqueueGeneration(c, aigen.JobTypeGenerateCode, &req)
	}

	result, err := s.aigen.GenerateCode(c.Request().Context(), &req)
	if err != nil {
		return httpError(c, err)
	}

	return jsonData(c, http.StatusOK, result)
}

func (s *Server) generateWorkflow(c echo.Context) error {
	req := aigen.GenerateWorkflowRequest{}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if c.QueryParam("async") == "true" {
		return s.enqueueGeneration(c, aigen.JobTypeGenerateWorkflow, &req)
	}

	result, err := s.aigen.GenerateWorkflow(c.Request().Context(), &req)
	if err != nil {
		return httpError(c, err)
	}

	return jsonData(c, http.StatusOK, result)
}

func (s *Server) enqueueGeneration(c echo.Context, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return httpError(c, err)
	}

	jobID, err := s.queue.Enqueue(jobType, currentUser(c).Sub, data)
	if err != nil {
		return httpError(c, err)
	}

	return jsonData(c, http.StatusAccepted, &jobHandle{JobID: jobID, Status: jobqueue.JobPending})
}

func (s *Server) getGenerationJob(c echo.Context) error {
	jobID, err := parseJobID(c.Param("job_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid job id")
	}

	job, err := s.queue.GetJob(jobID)
	if err != nil {
		return httpError(c, err)
	}

	return jsonData(c, http.StatusOK, job)
}

func parseJobID(raw string) (uint64, error) {
	return strconv.ParseUint(raw, 10, 64)
}
