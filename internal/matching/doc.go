// Package matching provides request path matching for the stub router.
//
// Route templates are slash-separated paths in which a segment of the form
// {name} binds exactly one request path segment. Matching is segment-wise and
// the request path is never cleaned, so an empty segment (for example the
// realm in "/id_manager/realms//protocol/openid-connect/token") still binds,
// to the empty string.
//
// When more than one template matches a path the one with the highest score
// wins. Score constants are defined in scores.go.
package matching
