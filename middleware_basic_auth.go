package main

import (
	"crypto/subtle"
	"net/http"
)

const basicAuthRealm = `Basic realm="rangegeo"`

type basicAuthMiddleware struct {
	handler  http.Handler
	user     []byte
	password []byte
}

func (b *basicAuthMiddleware) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	user, pass, ok := req.BasicAuth()

	userMatch := subtle.ConstantTimeCompare(b.user, []byte(user))
	passMatch := subtle.ConstantTimeCompare(b.password, []byte(pass))

	if ok && userMatch+passMatch == 2 {
		b.handler.ServeHTTP(w, req)

		return
	}

	w.Header().Set("WWW-Authenticate", basicAuthRealm)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":{"message":"Authentication is required","context":""}}` + "\n")) // nolint: errcheck
}
