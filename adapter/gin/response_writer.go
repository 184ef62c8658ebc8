package ginadapter

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const noWritten = -1

// responseWriter routes the gin writer into the exchange response buffer,
// keeping gin's status and size bookkeeping.
type responseWriter struct {
	gin.ResponseWriter

	target http.ResponseWriter
	status int
	size   int
}

func newResponseWriter(original gin.ResponseWriter, target http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: original,
		target:         target,
		status:         http.StatusOK,
		size:           noWritten,
	}
}

func (w *responseWriter) Header() http.Header {
	return w.target.Header()
}

func (w *responseWriter) WriteHeader(code int) {
	if code > 0 && !w.Written() {
		w.status = code
	}
}

func (w *responseWriter) WriteHeaderNow() {
	if !w.Written() {
		w.size = 0
		w.target.WriteHeader(w.status)
	}
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.WriteHeaderNow()
	n, err := w.target.Write(data)
	w.size += n
	return n, err //nolint:wrapcheck // writer errors are passed through unchanged
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.WriteHeaderNow()
	n, err := io.WriteString(w.target, s)
	w.size += n
	return n, err //nolint:wrapcheck // writer errors are passed through unchanged
}

func (w *responseWriter) Status() int {
	return w.status
}

func (w *responseWriter) Size() int {
	return w.size
}

func (w *responseWriter) Written() bool {
	return w.size != noWritten
}

func (w *responseWriter) Flush() {
	w.WriteHeaderNow()
	if f, ok := w.target.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the exchange response buffer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.target
}
