package rangelib

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h httpHandler) handleGetSelf(w http.ResponseWriter, req *http.Request) {
	ip, err := remoteIP(req)
	if err != nil {
		h.sendError(w, err, "Cannot detect your IP address", 0)

		return
	}

	h.handleResolve(w, ip)
}

func (h httpHandler) handleGetIP(w http.ResponseWriter, req *http.Request) {
	h.handleResolve(w, chi.URLParam(req, "ip"))
}

func (h httpHandler) handleGetStats(w http.ResponseWriter, req *http.Request) {
	response := struct {
		Results []*UsageStats `json:"results"`
		Load    LoadResult    `json:"load"`
	}{
		Results: []*UsageStats{h.locator.UsageStats()},
		Load:    h.locator.LoadResult(),
	}

	h.encodeJSON(w, response)
}
