package middleware

import (
	"net/http"
	"strings"
)

// contentSecurityPolicy はブログ画面のCSP。
// 記事本文のMarkdown画像は外部URLを許可し、スクリプトは自サイトのみ。
// フォームの送信先は自サイトに限る。
var contentSecurityPolicy = strings.Join([]string{
	"default-src 'self'",
	"img-src 'self' https: http: data:",
	"style-src 'self' 'unsafe-inline'",
	"script-src 'self'",
	"object-src 'none'",
	"base-uri 'none'",
	"form-action 'self'",
	"frame-ancestors 'none'",
}, "; ")

// hstsMaxAge はStrict-Transport-Securityのmax-age（180日）。
const hstsMaxAge = "max-age=15552000"

// NewSecurityHeadersMiddleware は全レスポンスにセキュリティヘッダーを付与するミドルウェアを返す。
// httpsOnly がtrueの場合はStrict-Transport-Securityも付与する。
func NewSecurityHeadersMiddleware(httpsOnly bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", contentSecurityPolicy)
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "same-origin")
			if httpsOnly {
				h.Set("Strict-Transport-Security", hstsMaxAge)
			}
			next.ServeHTTP(w, r)
		})
	}
}
