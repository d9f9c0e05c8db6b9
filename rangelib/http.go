package rangelib

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type httpHandler struct {
	locator *Locator
}

func (h httpHandler) handleResolve(w http.ResponseWriter, ip string) {
	rng, found, err := h.locator.Resolve(ip)

	switch {
	case errors.Is(err, ErrParse):
		h.sendError(w, err, "Incorrect IP address", http.StatusBadRequest)

		return
	case err != nil:
		h.sendError(w, err, "Cannot resolve IP address", 0)

		return
	case !found:
		h.sendError(w, nil, "IP address is not found", http.StatusNotFound)

		return
	}

	response := struct {
		Result ResolveResult `json:"result"`
	}{
		Result: newResolveResult(ip, rng, found, nil),
	}

	h.encodeJSON(w, response)
}

func (h httpHandler) encodeJSON(w http.ResponseWriter, data interface{}) {
	encoder := json.NewEncoder(w)

	w.Header().Set("Content-Type", "application/json")
	encoder.SetEscapeHTML(false)
	encoder.Encode(data) // nolint: errcheck
}

func (h httpHandler) sendError(w http.ResponseWriter, err error, message string, statusCode int) {
	e := &httpError{
		message:    message,
		statusCode: statusCode,
		err:        err,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode())
	json.NewEncoder(w).Encode(e) // nolint: errcheck
}

// NewHTTPHandler returns a handler which serves a JSON API of the
// locator:
//
//	GET  /       resolves an address of the caller
//	GET  /{ip}   resolves a given address
//	POST /       resolves a batch: {"ips": ["1.2.3.4", ...]}
//	GET  /stats  usage statistics and load result
func NewHTTPHandler(locator *Locator) http.Handler {
	handler := httpHandler{
		locator: locator,
	}
	router := chi.NewRouter()

	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		handler.sendError(w, nil, "Unknown endpoint", http.StatusNotFound)
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		handler.sendError(w, nil, "This HTTP method is not allowed", http.StatusMethodNotAllowed)
	})

	router.Get("/", handler.handleGetSelf)
	router.Post("/", handler.handlePost)
	router.Get("/stats", handler.handleGetStats)
	router.Get("/{ip}", handler.handleGetIP)

	return router
}

// remoteIP extracts an address of the caller. RemoteAddr may come
// without a port if some middleware (like chi RealIP) has rewritten it.
func remoteIP(req *http.Request) (string, error) {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err == nil {
		return host, nil
	}

	if ip := net.ParseIP(req.RemoteAddr); ip != nil {
		return ip.String(), nil
	}

	return "", err
}
