package server

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/ternarybob/imunetrack/internal/handlers"
)

// methods dispatches on the request method; anything else gets 405 with an Allow header
type methods map[string]http.HandlerFunc

func (m methods) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := m[r.Method]; ok {
		h(w, r)
		return
	}
	allowed := make([]string, 0, len(m))
	for method := range m {
		allowed = append(allowed, method)
	}
	sort.Strings(allowed)
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	handlers.WriteDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

// collection is GET list / POST create
func collection(list, create http.HandlerFunc) methods {
	return methods{http.MethodGet: list, http.MethodPost: create}
}

// item is GET / PUT / DELETE on one record
func item(get, update, remove http.HandlerFunc) methods {
	return methods{http.MethodGet: get, http.MethodPut: update, http.MethodDelete: remove}
}

// pathSegments splits the path after prefix, ignoring a trailing slash.
// "/usuarios/3/historico/" with prefix "/usuarios" gives ["3", "historico"].
func pathSegments(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

// parseID parses an integer path segment, writing 422 when it is not one
func parseID(w http.ResponseWriter, segment, name string) (int, bool) {
	id, err := strconv.Atoi(segment)
	if err != nil || id <= 0 {
		handlers.WriteDetailf(w, http.StatusUnprocessableEntity, "%s inválido: %s", name, segment)
		return 0, false
	}
	return id, true
}

// notFound writes the 404 used for unknown routes
func notFound(w http.ResponseWriter) {
	handlers.WriteDetail(w, http.StatusNotFound, "Not Found")
}
