package middleware

import (
	"fmt"
	"net/http"
	"os"
	"runtime/debug"

	"github.com/trailpost/tours-api/internal/http/response"
	"github.com/trailpost/tours-api/pkg/logger"
)

// Recovery catches handler panics. A panic means in-process state can
// no longer be trusted, so after logging the stack and answering the
// in-flight request with the generic 500 it stops the process; the
// supervisor restarts a clean one.
type Recovery struct {
	Renderer *response.Renderer

	// OnFatal runs after the panic is logged and the response written.
	// Defaults to exiting the process; tests substitute a spy.
	OnFatal func()
}

func (rc *Recovery) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			// net/http's own abort signal, not a fault
			if v == http.ErrAbortHandler {
				panic(v)
			}

			logger.ErrorContext(r.Context(), "panic while serving request",
				"panic", fmt.Sprint(v),
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			rc.Renderer.WriteError(w, r, response.Internal(fmt.Errorf("panic: %v", v)))

			if rc.OnFatal != nil {
				rc.OnFatal()
				return
			}
			os.Exit(1)
		}()
		next.ServeHTTP(w, r)
	})
}
