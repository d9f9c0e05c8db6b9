package rangelib

import (
	"encoding/json"
	"errors"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/qri-io/jsonschema"
)

var handlePostRequestJSONSchema = func() *jsonschema.Schema {
	data := `{
        "type": "object",
        "required": [
            "ips"
        ],
        "additionalProperties": false,
        "properties": {
            "ips": {
                "type": "array",
                "minItems": 1,
                "maxItems": 4096,
                "items": {
                    "type": "string",
                    "minLength": 1,
                    "maxLength": 64
                }
            }
        }
    }`

	rv := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(data), rv); err != nil {
		panic(err)
	}

	return rv
}()

type handlePostRequest struct {
	IPs []string `json:"ips"`
}

type handlePostResponse struct {
	Results []ResolveResult `json:"results"`
}

func (h httpHandler) handlePost(w http.ResponseWriter, req *http.Request) {
	if !strings.Contains(req.Header.Get("Content-Type"), "application/json") {
		h.sendError(w, nil, "Incorrect content type", http.StatusUnsupportedMediaType)

		return
	}

	bodyBytes, err := ioutil.ReadAll(req.Body)

	req.Body.Close()

	if err != nil {
		h.sendError(w, err, "Cannot read request body", http.StatusBadRequest)

		return
	}

	errs, err := handlePostRequestJSONSchema.ValidateBytes(req.Context(), bodyBytes)
	if err != nil {
		h.sendError(w, err, "Cannot validate body", http.StatusBadRequest)

		return
	}

	if len(errs) > 0 {
		h.sendError(w, errs[0], "Invalid request body", http.StatusBadRequest)

		return
	}

	parsedRequest := &handlePostRequest{}
	if err := json.Unmarshal(bodyBytes, parsedRequest); err != nil {
		h.sendError(w, err, "Cannot parse request JSON", http.StatusBadRequest)

		return
	}

	resolved, err := h.locator.ResolveAll(req.Context(), parsedRequest.IPs)

	switch {
	case errors.Is(err, ErrLocatorShutdown):
		h.sendError(w, err, "Service is shutting down", http.StatusServiceUnavailable)

		return
	case err != nil:
		h.sendError(w, err, "Cannot resolve given IPs", http.StatusInternalServerError)

		return
	}

	h.encodeJSON(w, handlePostResponse{
		Results: resolved,
	})
}
