package crud

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ErrorResponse is the body of non-validation error responses.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func detail(msg string) ErrorResponse {
	return ErrorResponse{Detail: msg}
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func keyString(key any) string {
	switch k := key.(type) {
	case nil:
		return ""
	case string:
		return k
	case time.Time:
		return k.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(k)
	}
}
