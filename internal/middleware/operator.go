package middleware

import (
	"context"
	"net/http"
	"strings"
)

type ContextKey string

const OperatorKey ContextKey = "operator"

// OperatorHeader names the organiser acting on a request. The engine records it
// on every operation it creates.
const OperatorHeader = "X-Operator"

func WithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, OperatorKey, operator)
}

func OperatorFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(OperatorKey)
	if val == nil {
		return "", false
	}
	operator, ok := val.(string)
	return operator, ok && operator != ""
}

// Operator puts the request's operator into its context. Requests that do not
// name one are attributed to fallback.
func Operator(fallback string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			operator := strings.TrimSpace(r.Header.Get(OperatorHeader))
			if operator == "" {
				operator = fallback
			}
			next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), operator)))
		})
	}
}
