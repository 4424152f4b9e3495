package ops

import (
	"errors"
	"fmt"
	"net/http"

	"shuttle-bot/pkg/auth"
	"shuttle-bot/pkg/logger"
)

func operatorOnly(log logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.GetClaims(r.Context())
		if !ok {
			log.Error("ops_middleware", errors.New("could not retrieve claims from context"))
			writeError(w, http.StatusInternalServerError, "Error processing request")
			return
		}

		if claims.Role != auth.RoleOperator {
			log.Error("ops_middleware", fmt.Errorf("unauthorized access attempt: subject=%s role=%s", claims.Subject, claims.Role))
			writeError(w, http.StatusUnauthorized, "You do not have permission to access this resource")
			return
		}

		next.ServeHTTP(w, r)
	})
}
