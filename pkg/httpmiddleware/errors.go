package httpmiddleware

import (
	"net/http"

	"github.com/go-faster/jx"
)

// writeJSONError emits the fixed {code, message} error body. The shape is
// small and static, so it is encoded directly with jx instead of reflection.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(status) })
		e.Field("message", func(e *jx.Encoder) { e.Str(message) })
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
