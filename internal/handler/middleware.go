package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/gatherly/gatherly/internal/model"
)

type callerKey struct{}

// Identity extracts the caller identity set by the upstream auth layer.
// The core consumes identity as an opaque input and never verifies
// credentials itself.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := model.Caller{
			ID:    r.Header.Get("X-Caller-Id"),
			Role:  model.Role(r.Header.Get("X-Caller-Role")),
			Name:  r.Header.Get("X-Caller-Name"),
			Email: r.Header.Get("X-Caller-Email"),
		}
		if caller.Role == "" {
			caller.Role = model.RoleUser
		}
		ctx := context.WithValue(r.Context(), callerKey{}, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CallerFrom returns the caller stored by Identity. The second return is
// false when the request carried no identity.
func CallerFrom(ctx context.Context) (model.Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(model.Caller)
	return caller, ok && caller.ID != ""
}

// requireCaller rejects unauthenticated requests with 401.
func requireCaller(w http.ResponseWriter, r *http.Request) (model.Caller, bool) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, model.ErrorResponse{Error: "caller identity required"})
	}
	return caller, ok
}

// Logger is a structured access log middleware.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Printf("%s %s %d %s reqid=%s",
			r.Method, r.URL.Path, ww.Status(), time.Since(start), chimiddleware.GetReqID(r.Context()))
	})
}

// CORS applies a permissive CORS policy for browser clients.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Caller-Id, X-Caller-Role, X-Caller-Name, X-Caller-Email")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
