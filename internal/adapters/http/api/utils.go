package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okian/kairosync/internal/domain/types"
)

// roleParam reads the {role} path segment.
func roleParam(r *http.Request) (types.Role, error) {
	role := types.Role(strings.ToLower(chi.URLParam(r, "role")))
	if !role.Valid() {
		return "", fmt.Errorf("%w: role must be local or remote", ErrBadRequest)
	}
	return role, nil
}

// queryInt reads an integer query parameter, falling back to def when it is
// absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrBadRequest, name)
	}
	return n, nil
}
