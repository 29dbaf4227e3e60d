package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// CORS libera leitura para as origens de ALLOW_ORIGINS.
// Suporta:
// - correspondência exata do Origin (ex.: https://eleicoes.pt)
// - wildcard de subdomínio quando a entrada começar com *. (ex.: *.eleicoes.pt)
// - "*" para qualquer origem
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowExact := make(map[string]struct{}, len(allowedOrigins))
	var allowSuffix []string
	allowAny := false

	for _, entry := range allowedOrigins {
		e := strings.TrimSpace(entry)
		switch {
		case e == "":
			continue
		case e == "*":
			allowAny = true
		case strings.HasPrefix(e, "*."):
			allowSuffix = append(allowSuffix, strings.ToLower(strings.TrimPrefix(e, "*")))
		default:
			allowExact[e] = struct{}{}
		}
	}

	isAllowed := func(origin string) bool {
		if origin == "" {
			return false
		}
		if allowAny {
			return true
		}
		if _, ok := allowExact[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(u.Hostname())
		for _, suf := range allowSuffix {
			// exige subdomínio: o host raiz do sufixo não conta
			if strings.HasSuffix(host, suf) && host != strings.TrimPrefix(suf, ".") {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if isAllowed(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With")
				w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
