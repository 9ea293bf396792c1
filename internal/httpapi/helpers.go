package httpapi

import (
	"net/http"
	"net/url"
	"strconv"
)

func queryInt(q url.Values, key string, def int) int {
	v := q.Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// pathInt64 reads an int64 URL path parameter (Go 1.22+ ServeMux {name}
// pattern), writing a 400 response and returning ok=false if it's missing
// or malformed.
func pathInt64(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{ErrorCode: "INVALID_PATH_PARAM", Message: "invalid " + name})
		return 0, false
	}
	return id, true
}
