package middleware

import (
	"context"
	"net/http"

	"github.com/soaringjerry/Scamwatch/internal/utils"
)

type ctxKey int

const localeKey ctxKey = 1

// SupportedLocales are the languages server-side strings exist for.
var SupportedLocales = []string{"en", "sw"}

// LocaleMiddleware picks en or sw from ?lang= or Accept-Language.
func LocaleMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale := utils.DetermineLocale(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"), SupportedLocales, "en")
		w.Header().Set("Content-Language", locale)
		ctx := context.WithValue(r.Context(), localeKey, locale)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func LocaleFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(localeKey).(string); ok && s != "" {
		return s
	}
	return "en"
}
