package server

import (
	"crypto/subtle"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// opsAuth checks HTTP Basic credentials against the configured user and
// bcrypt hash. With no hash configured the guarded routes report 404, so an
// unconfigured deployment does not advertise an ops surface at all.
func opsAuth(ops OpsAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ops.Hash == "" {
				writeError(w, http.StatusNotFound, "not found")
				return
			}

			user, pass, ok := r.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(user), []byte(ops.User)) != 1 ||
				bcrypt.CompareHashAndPassword([]byte(ops.Hash), []byte(pass)) != nil {
				w.Header().Set("WWW-Authenticate", `Basic realm="gumshoe ops"`)
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
