package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ParseJSON decodes the request body into dest with a 1MB cap on the
// body size. Unknown fields are tolerated: document metadata is an
// open map and clients may send fields added after this build shipped.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
