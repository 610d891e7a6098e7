package server

import (
	"net/http"
	"slices"
	"strings"

	"github.com/agbru/fibiter/internal/fibonacci"
)

// SecurityConfig configures SecurityMiddleware and the request limits.
type SecurityConfig struct {
	// EnableCORS adds Access-Control-* headers for allowed origins.
	EnableCORS bool
	// AllowedOrigins lists accepted origins; "*" accepts any.
	AllowedOrigins []string
	// AllowedMethods lists the methods the API answers. Others get 405.
	AllowedMethods []string
	// MaxCount is the largest count accepted by /sequence.
	MaxCount uint64
	// MaxNValue is the largest index accepted by /term and /sequence.
	MaxNValue uint64
	// MaxResponseDigits bounds the estimated number of decimal digits a
	// single /sequence response may carry. Zero disables the check.
	MaxResponseDigits uint64
}

// DefaultSecurityConfig returns a read-only API open to any origin.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		MaxCount:       10_000,
		MaxNValue:      10_000_000,

		MaxResponseDigits: 5_000_000,
	}
}

// uint64Digits is the width of math.MaxUint64 in decimal.
const uint64Digits = 20

// responseDigits estimates the digits of count terms ending at F(last),
// using the largest term as the bound for every term.
func responseDigits(numeric string, last, count uint64) uint64 {
	perTerm := uint64(fibonacci.EstimateDigits(last))
	if numeric == "uint64" {
		perTerm = min(perTerm, uint64Digits)
	}
	return perTerm * count
}

// withinDigitBudget reports whether a /sequence request stays under
// MaxResponseDigits.
func (c SecurityConfig) withinDigitBudget(numeric string, start, count uint64) bool {
	if c.MaxResponseDigits == 0 || count == 0 {
		return true
	}
	return responseDigits(numeric, start+count-1, count) <= c.MaxResponseDigits
}

// SecurityMiddleware sets security headers, answers CORS preflight
// requests and rejects methods outside config.AllowedMethods.
func SecurityMiddleware(config SecurityConfig, next http.HandlerFunc) http.HandlerFunc {
	methods := strings.Join(config.AllowedMethods, ", ")
	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		if config.EnableCORS {
			if origin, ok := allowedOrigin(config.AllowedOrigins, r.Header.Get("Origin")); ok {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", methods)
				h.Set("Access-Control-Allow-Headers", "Content-Type")
				h.Set("Access-Control-Max-Age", "86400")
			}
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if len(config.AllowedMethods) > 0 && !slices.Contains(config.AllowedMethods, r.Method) {
			h.Set("Allow", methods)
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method "+r.Method+" is not allowed")
			return
		}
		next(w, r)
	}
}

func allowedOrigin(allowed []string, origin string) (string, bool) {
	for _, a := range allowed {
		if a == "*" {
			return "*", true
		}
		if origin != "" && a == origin {
			return origin, true
		}
	}
	return "", false
}
