package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
)

// AccessLog пишет строку на каждый запрос и перехватывает панику обработчика
func AccessLog(logger Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			defer func() {
				if p := recover(); p != nil {
					logger.Error("%s %s - Panic recovered: request_id=%s, panic=%v",
						r.Method, r.URL.Path, RequestIDFromContext(r.Context()), p)
					if !rec.wroteHeader {
						handlers.RespondInternalError(rec)
					}
				}
				logger.Info("%s %s - status=%d, duration=%s, request_id=%s",
					r.Method, r.URL.Path, rec.status, time.Since(start), RequestIDFromContext(r.Context()))
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
