package fixture

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
)

var (
	// ErrMalformed is wrapped by errors for fixtures that are not valid JSON.
	ErrMalformed = errors.New("malformed fixture")

	// ErrOutsideRoot is returned by Locate when confinement is enabled and the
	// expanded path escapes the fixture root.
	ErrOutsideRoot = errors.New("fixture path escapes root")
)

// NotFoundBody is the body returned when a fixture does not exist.
var NotFoundBody = []byte(`{"error":"not found"}`)

// Result is the outcome of resolving a fixture.
type Result struct {
	// Document is the parsed fixture, nil when the file is absent.
	Document any
	// Body is the serialised response body.
	Body []byte
	// Status is the HTTP status to answer with.
	Status int
}

// Found reports whether the fixture existed.
func (r *Result) Found() bool {
	return r.Status == http.StatusOK
}

// Resolver maps relative fixture paths to files under a root directory.
// The root is fixed at construction and never changes.
type Resolver struct {
	root    string
	confine bool
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithConfinement rejects paths that escape the fixture root after expansion.
// Path parameters are substituted verbatim, so without confinement an id such
// as ".." can address files outside the root.
func WithConfinement(enabled bool) ResolverOption {
	return func(r *Resolver) {
		r.confine = enabled
	}
}

// NewResolver creates a Resolver rooted at root. The root is kept as written,
// apart from trailing separators, so located paths read "./in/machines/..."
// for a root of "./in".
func NewResolver(root string, opts ...ResolverOption) *Resolver {
	trimmed := strings.TrimRight(root, string(filepath.Separator))
	if trimmed == "" {
		trimmed = filepath.Clean(root)
	}
	r := &Resolver{root: trimmed}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Locate returns the on-disk path of a relative fixture path.
func (r *Resolver) Locate(rel string) (string, error) {
	p := filepath.Clean(filepath.FromSlash(rel))
	if r.root != string(filepath.Separator) {
		p = r.root + string(filepath.Separator) + p
	} else {
		p = r.root + p
	}
	if r.confine {
		within, err := filepath.Rel(r.root, p)
		if err != nil || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
		}
	}
	return p, nil
}

// Resolve loads the fixture at rel. An absent file yields a 404 Result and a
// nil error; read or parse failures are returned as errors.
func (r *Resolver) Resolve(rel string) (*Result, error) {
	p, err := r.Locate(rel)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Result{Body: NotFoundBody, Status: http.StatusNotFound}, nil
		}
		return nil, fmt.Errorf("read fixture %s: %w", p, err)
	}

	doc, body, err := Canonicalize(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	return &Result{Document: doc, Body: body, Status: http.StatusOK}, nil
}

// Canonicalize parses data as JSON and serialises it again. Non-ASCII text is
// written as UTF-8 and HTML characters are left unescaped. Empty input and
// numbers that overflow a float64 are malformed: neither has a JSON rendering.
func Canonicalize(data []byte) (any, []byte, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}
	doc, err := oj.Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := checkFinite(doc, "$"); err != nil {
		return nil, nil, err
	}
	return doc, []byte(oj.JSON(doc, &writeOptions)), nil
}

func checkFinite(v any, at string) error {
	switch tv := v.(type) {
	case float64:
		if math.IsInf(tv, 0) || math.IsNaN(tv) {
			return fmt.Errorf("%w: number out of range at %s", ErrMalformed, at)
		}
	case []any:
		for i, e := range tv {
			if err := checkFinite(e, fmt.Sprintf("%s[%d]", at, i)); err != nil {
				return err
			}
		}
	case map[string]any:
		for k, e := range tv {
			if err := checkFinite(e, at+"."+k); err != nil {
				return err
			}
		}
	}
	return nil
}

var writeOptions = func() ojg.Options {
	opts := ojg.DefaultOptions
	opts.Sort = true
	opts.HTMLUnsafe = true
	return opts
}()
