package httpapi

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/MrWong99/greeni/internal/apperr"
	"github.com/MrWong99/greeni/internal/observe"
)

// Recover turns a handler panic into a logged 500 with the JSON envelope.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				observe.Logger(r.Context()).Error("panic in handler", "panic", v, "path", r.URL.Path)
				writeError(w, r, apperr.Internal(fmt.Errorf("panic: %v", v)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

const (
	corsAllowedMethods = "GET, POST, OPTIONS"
	corsAllowedHeaders = "Content-Type, X-Request-ID, Traceparent"
	corsExposedHeaders = "X-Request-ID, X-Trace-ID"
)

// CORS applies an origin allowlist. "*" in origins allows every origin.
// Preflight requests are answered here and never reach next.
func CORS(origins []string, next http.Handler) http.Handler {
	wildcard := slices.Contains(origins, "*")
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	allow := func(origin string) bool { return wildcard || allowed[origin] }

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			if origin == "" || !allow(origin) {
				writeError(w, r, &apperr.Error{Kind: apperr.KindValidation, Code: apperr.CodeInvalidRequest, Message: "cors preflight not allowed", Status: http.StatusForbidden})
				return
			}
			setAllowOrigin(w, origin, wildcard)
			w.Header().Set("Access-Control-Allow-Methods", corsAllowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", corsAllowedHeaders)
			w.Header().Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if origin != "" && allow(origin) {
			setAllowOrigin(w, origin, wildcard)
			w.Header().Set("Access-Control-Expose-Headers", corsExposedHeaders)
		}
		next.ServeHTTP(w, r)
	})
}

func setAllowOrigin(w http.ResponseWriter, origin string, wildcard bool) {
	if wildcard {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Add("Vary", "Origin")
}
