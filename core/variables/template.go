package variables

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/swisspipe/swisspipe/metrics"
	"github.com/swisspipe/swisspipe/model"
	"github.com/swisspipe/swisspipe/pkg/logger"
)

// templateTokenRegex matches reference tokens like {{API_KEY}} or {{ env.API_KEY }}
var templateTokenRegex = regexp.MustCompile(`\{\{([^{}]*)\}\}`)

// envRefRegex finds env.NAME references inside a token expression
var envRefRegex = regexp.MustCompile(`env\.([A-Z0-9_]+)`)

// maxExpansionDepth bounds nested expansion. Hitting it means the variable
// graph has a cycle (or absurd nesting) and rendering fails instead of
// looping forever.
const maxExpansionDepth = 10

// TemplateEngine substitutes variable references inside workflow templates.
//
// Two reference forms are resolved:
//
//	{{API_KEY}}            direct substitution of a variable in scope
//	{{ env.API_KEY }}      expression over the env namespace, full expr-lang
//	                       syntax, e.g. {{ env.HOST + ":" + env.PORT }}
//
// Tokens that are neither (helpers of downstream engines such as
// {{json data}}) pass through untouched. A reference to an undefined
// variable fails the whole render; nothing is silently blanked out.
type TemplateEngine struct {
	vars   *Service
	logger logger.Logger
}

func NewTemplateEngine(vars *Service, l logger.Logger) *TemplateEngine {
	return &TemplateEngine{
		vars:   vars,
		logger: logger.EnsureLogger(l),
	}
}

// Render resolves every variable reference in template against the given
// scope and returns the fully rendered string. Rendering a string without
// reference tokens returns it unchanged.
func (t *TemplateEngine) Render(template string, scope string) (string, error) {
	// Quick check before touching storage
	if !strings.Contains(template, "{{") {
		return template, nil
	}

	env, err := t.vars.LoadVariables(scope)
	if err != nil {
		metrics.IncRenderFailed()
		return "", err
	}

	out, err := RenderWithVariables(template, env)
	if err != nil {
		metrics.IncRenderFailed()
		t.logger.Debug("template render failed", "scope", scope, "error", err)
		return "", err
	}

	metrics.IncRenderOk()
	return out, nil
}

// RenderMap renders every template in the map, failing on the first error.
func (t *TemplateEngine) RenderMap(templates map[string]string, scope string) (map[string]string, error) {
	if len(templates) == 0 {
		return map[string]string{}, nil
	}

	env, err := t.vars.LoadVariables(scope)
	if err != nil {
		metrics.IncRenderFailed()
		return nil, err
	}

	resolved := make(map[string]string, len(templates))
	for key, template := range templates {
		out, err := RenderWithVariables(template, env)
		if err != nil {
			metrics.IncRenderFailed()
			return nil, err
		}
		resolved[key] = out
	}

	metrics.IncRenderOk()
	return resolved, nil
}

// RenderWithVariables expands template against a pre-resolved variable map.
// Values may themselves contain references; expansion repeats until the
// output settles, bounded by maxExpansionDepth.
func RenderWithVariables(template string, env map[string]string) (string, error) {
	current := template

	for depth := 0; depth < maxExpansionDepth; depth++ {
		out, substituted, err := expandOnce(current, env)
		if err != nil {
			return "", err
		}
		if !substituted {
			return out, nil
		}
		current = out
	}

	return "", NewCircularReferenceError(template)
}

// expandOnce walks every token once. substituted reports whether any
// reference was replaced, so the caller knows when expansion has settled.
func expandOnce(template string, env map[string]string) (out string, substituted bool, err error) {
	out = templateTokenRegex.ReplaceAllStringFunc(template, func(token string) string {
		if err != nil {
			return token
		}

		inner := strings.TrimSpace(token[2 : len(token)-2])

		// Bare uppercase name: direct substitution
		if model.ValidVariableName(inner) {
			value, ok := env[inner]
			if !ok {
				err = NewUnresolvedReferenceError(inner)
				return token
			}
			substituted = true
			return value
		}

		// env-namespaced expression
		if envRefRegex.MatchString(inner) {
			value, evalErr := evalEnvExpression(inner, env)
			if evalErr != nil {
				err = evalErr
				return token
			}
			substituted = true
			return value
		}

		// Foreign helper token, leave for downstream engines
		return token
	})

	if err != nil {
		return "", false, err
	}
	return out, substituted, nil
}

// evalEnvExpression evaluates an expression over the env namespace. Every
// env.NAME reference must exist; expr would otherwise yield a zero value and
// we would render blanks.
func evalEnvExpression(expression string, env map[string]string) (string, error) {
	for _, match := range envRefRegex.FindAllStringSubmatch(expression, -1) {
		name := match[1]
		if _, ok := env[name]; !ok {
			return "", NewUnresolvedReferenceError(name)
		}
	}

	result, err := expr.Eval(expression, map[string]interface{}{"env": env})
	if err != nil {
		return "", NewValidationError(fmt.Sprintf("invalid template expression %q: %s", expression, err))
	}
	if result == nil {
		return "", NewUnresolvedReferenceError(expression)
	}

	return fmt.Sprintf("%v", result), nil
}
