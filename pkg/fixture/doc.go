// Package fixture resolves canned JSON responses stored under a fixture root.
//
// A fixture is addressed by a path template relative to the root, for example
// "machines/{m}/detail.json". Templates are expanded with the path parameters
// bound by the router and the resulting file is read, parsed and re-serialised
// on every call; nothing is cached, so a test may swap fixtures between
// requests.
//
// A missing file is a normal outcome (404 {"error":"not found"}). A file that
// exists but is not valid JSON is a fixture authoring error and is reported as
// an error wrapping ErrMalformed so that it surfaces as a server error instead
// of being masked.
package fixture
