package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/swisspipe/swisspipe/core/variables"
	"github.com/swisspipe/swisspipe/model"
)

// Secret values never leave the API in plaintext, every response goes
// through Masked().

func (s *Server) listVariables(c echo.Context) error {
	scope := scopeFromContext(c)

	vars, err := s.variables.List(scope)
	if err != nil {
		return httpError(c, err)
	}

	masked := lo.Map(vars, func(v *model.Variable, _ int) *model.Variable {
		return v.Masked()
	})
	return jsonData(c, http.StatusOK, masked)
}

func (s *Server) createVariable(c echo.Context) error {
	scope := scopeFromContext(c)

	req := variables.CreateVariableRequest{}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	v, err := s.variables.Create(scope, req)
	if err != nil {
		return httpError(c, err)
	}

	return jsonData(c, http.StatusCreated, v.Masked())
}

func (s *Server) getVariable(c echo.Context) error {
	scope := scopeFromContext(c)

	v, err := s.variables.Get(scope, c.Param("name"))
	if err != nil {
		return httpError(c, err)
	}

	return jsonData(c, http.StatusOK, v.Masked())
}

func (s *Server) updateVariable(c echo.Context) error {
	scope := scopeFromContext(c)

	req := variables.UpdateVariableRequest{}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	v, err := s.variables.Update(scope, c.Param("name"), req)
	if err != nil {
		return httpError(c, err)
	}

	return jsonData(c, http.StatusOK, v.Masked())
}

func (s *Server) deleteVariable(c echo.Context) error {
	scope := scopeFromContext(c)

	if err := s.variables.Delete(scope, c.Param("name")); err != nil {
		return httpError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deleteScope(c echo.Context) error {
	scope := scopeFromContext(c)

	deleted, err := s.variables.DeleteScope(scope)
	if err != nil {
		return httpError(c, err)
	}

	return jsonData(c, http.StatusOK, map[string]int64{"deleted": deleted})
}

type renderRequest struct {
	Template  string            `json:"template,omitempty"`
	Templates map[string]string `json:"templates,omitempty"`
}

type renderResponse struct {
	Rendered    string            `json:"rendered,omitempty"`
	RenderedMap map[string]string `json:"rendered_map,omitempty"`
}

// renderTemplate resolves {{VARIABLE}} references against the workflow's
// scope. Accepts a single template or a map of named templates.
func (s *Server) renderTemplate(c echo.Context) error {
	scope := scopeFromContext(c)

	req := renderRequest{}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Template == "" && len(req.Templates) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "template or templates is required")
	}

	resp := renderResponse{}

	if req.Template != "" {
		rendered, err := s.templates.Render(req.Template, scope)
		if err != nil {
			return httpError(c, err)
		}
		resp.Rendered = rendered
	}

	if len(req.Templates) > 0 {
		rendered, err := s.templates.RenderMap(req.Templates, scope)
		if err != nil {
			return httpError(c, err)
		}
		resp.RenderedMap = rendered
	}

	return jsonData(c, http.StatusOK, resp)
}
