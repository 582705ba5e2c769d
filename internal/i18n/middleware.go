package i18n

import "net/http"

// Middleware injects a localizer into every request context. The configured
// language is the default; a lang query parameter overrides it per request.
func Middleware(lang string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLang := lang
			if q := r.URL.Query().Get("lang"); q != "" {
				reqLang = q
			}
			ctx := WithLocalizer(r.Context(), NewLocalizer(reqLang))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
