package respond

import (
	"encoding/json"
	"net/http"
)

// JSON writes data as a JSON body with the given status code.
func JSON(w http.ResponseWriter, r *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// Error writes {"error": message}.
func Error(w http.ResponseWriter, r *http.Request, code int, message string) {
	JSON(w, r, code, map[string]string{"error": message})
}

// NoContent writes 204 with no body.
func NoContent(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
