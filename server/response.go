package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/swisspipe/swisspipe/core/aigen"
	"github.com/swisspipe/swisspipe/core/jobqueue"
	"github.com/swisspipe/swisspipe/core/variables"
	"github.com/swisspipe/swisspipe/core/versions"
)

type errorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type errorResp struct {
	Error errorBody `json:"error"`
}

// httpError maps service errors onto HTTP statuses with a structured body.
func httpError(c echo.Context, err error) error {
	var structured *variables.StructuredError
	if errors.As(err, &structured) {
		return c.JSON(statusForCode(structured.Code), &errorResp{Error: errorBody{
			Code:    string(structured.Code),
			Message: structured.Message,
			Details: structured.Details,
		}})
	}

	var validation *versions.ValidationError
	if errors.As(err, &validation) {
		return c.JSON(http.StatusBadRequest, &errorResp{Error: errorBody{
			Code:    "VALIDATION_ERROR",
			Message: validation.Error(),
		}})
	}

	switch {
	case errors.Is(err, versions.ErrNotFound):
		return c.JSON(http.StatusNotFound, &errorResp{Error: errorBody{
			Code:    "NOT_FOUND",
			Message: "version not found",
		}})
	case errors.Is(err, versions.ErrInvalidCursor):
		return c.JSON(http.StatusBadRequest, &errorResp{Error: errorBody{
			Code:    "INVALID_CURSOR",
			Message: err.Error(),
		}})
	case errors.Is(err, jobqueue.ErrJobNotFound):
		return c.JSON(http.StatusNotFound, &errorResp{Error: errorBody{
			Code:    "NOT_FOUND",
			Message: "job not found",
		}})
	case errors.Is(err, aigen.ErrMissingAPIKey):
		return c.JSON(http.StatusServiceUnavailable, &errorResp{Error: errorBody{
			Code:    "AI_NOT_CONFIGURED",
			Message: err.Error(),
		}})
	}

	return c.JSON(http.StatusInternalServerError, &errorResp{Error: errorBody{
		Code:    "INTERNAL_ERROR",
		Message: err.Error(),
	}})
}

func statusForCode(code variables.ErrorCode) int {
	switch code {
	case variables.CodeNotFound:
		return http.StatusNotFound
	case variables.CodeDuplicateName:
		return http.StatusConflict
	case variables.CodeValidation:
		return http.StatusBadRequest
	case variables.CodeUnresolvedReference, variables.CodeCircularReference:
		return http.StatusUnprocessableEntity
	case variables.CodeKeyNotFound, variables.CodeDecryptFailed:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

func jsonData[T any](c echo.Context, status int, data T) error {
	return c.JSON(status, &HttpJsonResp[T]{Data: data})
}
