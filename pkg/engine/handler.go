package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cohdi/cdimock/internal/matching"
	"github.com/cohdi/cdimock/pkg/allocation"
	"github.com/cohdi/cdimock/pkg/fixture"
	"github.com/cohdi/cdimock/pkg/httputil"
	"github.com/cohdi/cdimock/pkg/logging"
	"github.com/cohdi/cdimock/pkg/token"
)

// Handler serves the stub API.
type Handler struct {
	resolver *fixture.Resolver
	store    *allocation.Store
	token    token.Response
	log      *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger used for fixture and allocation errors.
func WithHandlerLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// WithToken sets the payload served by the token endpoint.
func WithToken(tok token.Response) HandlerOption {
	return func(h *Handler) {
		h.token = tok
	}
}

// WithAllocationStore sets the store used by the PATCH update route.
func WithAllocationStore(store *allocation.Store) HandlerOption {
	return func(h *Handler) {
		if store != nil {
			h.store = store
		}
	}
}

// NewHandler creates a Handler serving fixtures from resolver.
func NewHandler(resolver *fixture.Resolver, opts ...HandlerOption) *Handler {
	h := &Handler{
		resolver: resolver,
		token:    token.Default(),
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.store == nil {
		h.store = allocation.NewStore(allocation.WithLogger(h.log))
	}
	return h
}

// pathParams collects the request's bound values for the placeholders of a
// fixture template.
func pathParams(r *http.Request, template string) map[string]string {
	names := matching.ParamNames(template)
	params := make(map[string]string, len(names))
	for _, name := range names {
		params[name] = r.PathValue(name)
	}
	return params
}

// serveFixture answers with the fixture at template.
func (h *Handler) serveFixture(template string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rel := fixture.Expand(template, pathParams(r, template))

		res, err := h.resolver.Resolve(rel)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		httputil.WriteRawJSON(w, res.Status, res.Body)
	})
}

// serveAllocation answers with the next resource of the pool at template,
// moving it to the pool's allocated directory.
func (h *Handler) serveAllocation(template string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		incoming, err := h.resolver.Locate(fixture.Expand(template, pathParams(r, template)))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		allocated := filepath.Join(incoming, fixture.AllocatedDir)
		if err := os.MkdirAll(allocated, 0o755); err != nil {
			h.writeError(w, r, fmt.Errorf("create allocated dir: %w", err))
			return
		}

		res, err := h.store.AllocateNext(incoming, allocated)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		httputil.WriteRawJSON(w, res.Status, res.Body)
	})
}

// serveLiteral answers 200 with body and does nothing else.
func (h *Handler) serveLiteral(body []byte) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteRawJSON(w, http.StatusOK, body)
	})
}

// handleToken answers with the fixed token payload for any realm.
func (h *Handler) handleToken(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteOK(w, h.token)
}

// handleHealth handles the liveness probe endpoint.
func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteOK(w, map[string]string{"status": "ok"})
}

// writeError maps an error to its response. Only an absent resource is a
// client-visible 404; anything else is a broken fixture tree and must surface
// as a server error.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := h.log.With("path", r.URL.Path, "request_id", RequestID(r.Context()))

	var exhausted *allocation.PoolExhaustedError
	switch {
	case errors.As(err, &exhausted):
		httputil.WriteError(w, http.StatusNotFound, exhausted.ErrorCode(), exhausted.Error())
	case errors.Is(err, fixture.ErrOutsideRoot):
		log.Warn("rejected fixture path", "error", err)
		httputil.WriteNotFound(w)
	case errors.Is(err, fixture.ErrMalformed):
		log.Error("malformed fixture", "error", err)
		httputil.WriteInternalError(w, "malformed_fixture", err.Error())
	default:
		log.Error("request failed", "error", err)
		httputil.WriteInternalError(w, "internal_error", err.Error())
	}
}
