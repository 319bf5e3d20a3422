package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// NewRecoveryMiddleware はハンドラーのpanicを回復し、500のエラーページを返すミドルウェアを生成する。
//
// errorPage はpanic時のレスポンスを書き込むハンドラーで、ステータス500を書く責務を持つ。
// nilの場合はプレーンテキストの500を返す。
// レスポンスの書き込みが始まった後のpanicでは、壊れたページに追記しないようログのみ残す。
// http.ErrAbortHandlerはnet/httpの接続中断として再panicする。
func NewRecoveryMiddleware(errorPage http.Handler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if err, ok := p.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(p)
				}

				slog.Error("panic recovered",
					slog.Any("panic", p),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Bool("response_started", rec.written),
					slog.String("stack", string(debug.Stack())),
				)

				if rec.written {
					return
				}
				if errorPage == nil {
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				errorPage.ServeHTTP(w, r)
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
