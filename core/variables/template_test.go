package variables

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/swisspipe/swisspipe/core/testutil"
	"github.com/swisspipe/swisspipe/model"
)

func newTestTemplateEngine(t *testing.T) (*TemplateEngine, *Service) {
	svc, _ := newTestService(t, nil)
	return NewTemplateEngine(svc, testutil.GetLogger()), svc
}

func TestRenderNoTokensIsIdentity(t *testing.T) {
	engine, _ := newTestTemplateEngine(t)

	for _, template := range []string{
		"",
		"https://api.example.com/users",
		"no braces at all",
		"single { brace } pairs",
	} {
		out, err := engine.Render(template, "wf1")
		assert.NoError(t, err)
		assert.Equal(t, template, out)
	}
}

func TestRenderBareReference(t *testing.T) {
	engine, svc := newTestTemplateEngine(t)

	_, err := svc.Create("wf1", CreateVariableRequest{
		Name:  "API_KEY",
		Type:  model.VariableTypeSecret,
		Value: "secret",
	})
	assert.NoError(t, err)

	out, err := engine.Render("curl -H 'Auth: {{API_KEY}}'", "wf1")
	assert.NoError(t, err)
	assert.Equal(t, "curl -H 'Auth: secret'", out)
}

func TestRenderEnvNamespace(t *testing.T) {
	engine, svc := newTestTemplateEngine(t)

	_, err := svc.Create("wf1", CreateVariableRequest{Name: "API_HOST", Value: "https://api.example.com"})
	assert.NoError(t, err)
	_, err = svc.Create("wf1", CreateVariableRequest{Name: "VERSION", Value: "v1"})
	assert.NoError(t, err)

	t.Run("Simple lookup", func(t *testing.T) {
		out, err := engine.Render("{{ env.API_HOST }}/users", "wf1")
		assert.NoError(t, err)
		assert.Equal(t, "https://api.example.com/users", out)
	})

	t.Run("Multiple references", func(t *testing.T) {
		out, err := engine.Render("{{ env.API_HOST }}/{{ env.VERSION }}/users", "wf1")
		assert.NoError(t, err)
		assert.Equal(t, "https://api.example.com/v1/users", out)
	})

	t.Run("Expression", func(t *testing.T) {
		out, err := engine.Render(`{{ env.API_HOST + "/" + env.VERSION }}`, "wf1")
		assert.NoError(t, err)
		assert.Equal(t, "https://api.example.com/v1", out)
	})
}

func TestRenderUndefinedReferenceFails(t *testing.T) {
	engine, _ := newTestTemplateEngine(t)

	t.Run("Bare reference", func(t *testing.T) {
		out, err := engine.Render("value: {{UNDEFINED_VAR}}", "wf1")
		assert.True(t, errors.Is(err, ErrUnresolvedReference))
		assert.Empty(t, out, "no partial output on failure")
	})

	t.Run("Env reference", func(t *testing.T) {
		_, err := engine.Render("{{ env.UNDEFINED_VAR }}", "wf1")
		assert.True(t, errors.Is(err, ErrUnresolvedReference))
	})
}

func TestRenderForeignTokensPassThrough(t *testing.T) {
	engine, _ := newTestTemplateEngine(t)

	// Helpers of downstream template engines must survive untouched
	for _, template := range []string{
		"Hello {{json data}}",
		"Date: {{date_format timestamp}}",
		"{{#each items}}{{this}}{{/each}}",
	} {
		out, err := engine.Render(template, "wf1")
		assert.NoError(t, err)
		assert.Equal(t, template, out)
	}
}

func TestRenderNestedReferences(t *testing.T) {
	engine, svc := newTestTemplateEngine(t)

	_, err := svc.Create("wf1", CreateVariableRequest{Name: "HOST", Value: "api.example.com"})
	assert.NoError(t, err)
	_, err = svc.Create("wf1", CreateVariableRequest{Name: "BASE_URL", Value: "https://{{HOST}}"})
	assert.NoError(t, err)

	out, err := engine.Render("{{BASE_URL}}/users", "wf1")
	assert.NoError(t, err)
	assert.Equal(t, "https://api.example.com/users", out)
}

func TestRenderCircularReferenceFails(t *testing.T) {
	engine, svc := newTestTemplateEngine(t)

	_, err := svc.Create("wf1", CreateVariableRequest{Name: "PING", Value: "{{PONG}}"})
	assert.NoError(t, err)
	_, err = svc.Create("wf1", CreateVariableRequest{Name: "PONG", Value: "{{PING}}"})
	assert.NoError(t, err)
	_, err = svc.Create("wf1", CreateVariableRequest{Name: "SELF", Value: "{{SELF}}"})
	assert.NoError(t, err)

	_, err = engine.Render("{{PING}}", "wf1")
	assert.True(t, errors.Is(err, ErrCircularReference))

	_, err = engine.Render("{{SELF}}", "wf1")
	assert.True(t, errors.Is(err, ErrCircularReference))
}

func TestRenderIdempotent(t *testing.T) {
	engine, svc := newTestTemplateEngine(t)

	_, err := svc.Create("wf1", CreateVariableRequest{Name: "NAME", Value: "world"})
	assert.NoError(t, err)

	once, err := engine.Render("hello {{NAME}}", "wf1")
	assert.NoError(t, err)

	twice, err := engine.Render(once, "wf1")
	assert.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestRenderMap(t *testing.T) {
	engine, svc := newTestTemplateEngine(t)

	_, err := svc.Create("wf1", CreateVariableRequest{
		Name:  "TOKEN",
		Type:  model.VariableTypeSecret,
		Value: "secret123",
	})
	assert.NoError(t, err)

	resolved, err := engine.RenderMap(map[string]string{
		"auth": "Bearer {{TOKEN}}",
		"key":  "Key {{ env.TOKEN }}",
	}, "wf1")
	assert.NoError(t, err)
	assert.Equal(t, "Bearer secret123", resolved["auth"])
	assert.Equal(t, "Key secret123", resolved["key"])
}

func TestRenderWithVariables(t *testing.T) {
	env := map[string]string{"A": "1", "B": "2"}

	out, err := RenderWithVariables("{{A}}+{{B}}={{ env.A + env.B }}", env)
	assert.NoError(t, err)
	assert.Equal(t, "1+2=12", out)
}
