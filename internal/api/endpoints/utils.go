package endpoints

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"lobby-backend/internal/api"
)

type handlerFunc func(http.ResponseWriter, *http.Request) error

// methods maps an HTTP method to the handler serving it on one route.
type methods map[string]handlerFunc

func WriteJSON(w http.ResponseWriter, status int, v any) error {
	return api.WriteJSON(w, status, v)
}

func (m methods) serve(w http.ResponseWriter, r *http.Request) error {
	if handler, ok := m[r.Method]; ok {
		return handler(w, r)
	}
	w.Header().Set("Allow", m.allow())
	return &api.HTTPError{
		StatusCode: http.StatusMethodNotAllowed,
		Message:    "Method not allowed.",
		ErrorLog:   fmt.Errorf("method %s not allowed on %s", r.Method, r.URL.Path),
	}
}

func (m methods) allow() string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
