package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS wraps the whole HTTP handler so preflight requests never reach gin.
func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", HeaderXRequestID},
		ExposedHeaders:   []string{HeaderXRequestID},
		AllowCredentials: false,
		MaxAge:           86400,
	}).Handler(next)
}
