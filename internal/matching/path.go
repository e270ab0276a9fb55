package matching

import (
	"strings"
)

// MatchPath checks if the request path matches the route template.
// Returns a score > 0 if matched, 0 if not matched, along with the values bound
// to the template's named parameters.
// Supports:
//   - Exact match: "/fabric_manager/api/v1/machines" matches itself
//   - Named params: "/fabric_manager/api/v1/machines/{m}" matches "/fabric_manager/api/v1/machines/42"
func MatchPath(template, path string) (int, map[string]string) {
	if template == path && !strings.Contains(template, "{") {
		return ScorePathExact, map[string]string{}
	}

	templateParts := splitPath(template)
	pathParts := splitPath(path)

	// Must have same number of segments
	if len(templateParts) != len(pathParts) {
		return 0, nil
	}

	params := make(map[string]string)
	score := ScorePathNamedParams
	for i, part := range templateParts {
		if name, ok := paramName(part); ok {
			params[name] = pathParts[i]
			continue
		}
		// Literal parts must match exactly
		if part != pathParts[i] {
			return 0, nil
		}
		score += ScoreLiteralSegment
	}
	if score >= ScorePathExact {
		score = ScorePathExact - 1
	}

	return score, params
}

// ParamNames returns the named parameters of a template in order of appearance.
func ParamNames(template string) []string {
	var names []string
	for _, part := range splitPath(template) {
		if name, ok := paramName(part); ok {
			names = append(names, name)
		}
	}
	return names
}

// ValidateTemplate reports whether a template is well formed: it must start
// with a slash, and every brace must belong to a whole-segment {name} parameter
// whose name is unique within the template.
func ValidateTemplate(template string) error {
	if !strings.HasPrefix(template, "/") {
		return &TemplateError{Template: template, Reason: "must start with '/'"}
	}
	seen := make(map[string]bool)
	for _, part := range splitPath(template) {
		name, ok := paramName(part)
		if !ok {
			if strings.ContainsAny(part, "{}") {
				return &TemplateError{Template: template, Reason: "parameter must span a whole segment: " + part}
			}
			continue
		}
		if name == "" {
			return &TemplateError{Template: template, Reason: "empty parameter name"}
		}
		if seen[name] {
			return &TemplateError{Template: template, Reason: "duplicate parameter: " + name}
		}
		seen[name] = true
	}
	return nil
}

// TemplateError describes a malformed route template.
type TemplateError struct {
	Template string
	Reason   string
}

func (e *TemplateError) Error() string {
	return "invalid route template " + e.Template + ": " + e.Reason
}

// splitPath drops the leading slash only. A trailing slash leaves an empty
// last segment, so "/machines/" does not match "/machines".
func splitPath(p string) []string {
	return strings.Split(strings.TrimPrefix(p, "/"), "/")
}

func paramName(segment string) (string, bool) {
	if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
		return segment[1 : len(segment)-1], true
	}
	return "", false
}
