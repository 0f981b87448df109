package server

import (
	"crypto/subtle"
	"net/http"
)

// authorize checks the shared token when one is configured. The token is read
// from the "token" query parameter, since browsers cannot set websocket headers.
func (s *Server) authorize(r *http.Request) error {
	want := s.config.AuthToken
	if want == "" {
		return nil
	}
	got := r.URL.Query().Get("token")
	if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return ErrUnauthorized
	}
	return nil
}
