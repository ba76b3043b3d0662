package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/campool/campool/pkg/utils"
)

// Recovery converts panics into 500 responses instead of dropping the connection.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("panic recovered: %v\n%s", err, debug.Stack())
				utils.InternalError(w, "an unexpected error occurred")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
