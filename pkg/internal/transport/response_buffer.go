package transport

import (
	"bytes"
	"fmt"
	"net/http"
)

// ResponseBuffer is a custom http.ResponseWriter that holds back the status code and body
// until Commit is called, so that the complete response can be signed before it is sent.
// Headers and informational (1xx) responses are written directly to the wrapped writer.
type ResponseBuffer struct {
	http.ResponseWriter
	written      bool
	statusCode   int
	body         bytes.Buffer
	isError      bool
	errorMessage string
}

// NewResponseBuffer creates a new response buffer in front of w.
func NewResponseBuffer(w http.ResponseWriter) *ResponseBuffer {
	return &ResponseBuffer{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader captures the final status code. Only the first call has effect.
func (r *ResponseBuffer) WriteHeader(statusCode int) {
	if r.written {
		return
	}
	if isInformational(statusCode) {
		r.ResponseWriter.WriteHeader(statusCode)
		return
	}
	r.statusCode = statusCode
	r.written = true
}

// Write captures the response body and ensures that WriteHeader is called at least once.
func (r *ResponseBuffer) Write(b []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	return r.body.Write(b)
}

// WriteString captures the response body, see Write.
func (r *ResponseBuffer) WriteString(s string) (int, error) {
	return r.Write([]byte(s))
}

// Flush does nothing: the response can only reach the client once it is signed.
func (r *ResponseBuffer) Flush() {}

// SendError marks the response as an error. Body bytes captured so far are kept
// and message is sent after them on Commit.
func (r *ResponseBuffer) SendError(statusCode int, message string) {
	r.statusCode = statusCode
	r.written = true
	r.isError = true
	r.errorMessage = message

	h := r.Header()
	h.Del("Content-Length")
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
}

// StatusCode returns the captured status code.
func (r *ResponseBuffer) StatusCode() int {
	return r.statusCode
}

// Body returns the captured body.
func (r *ResponseBuffer) Body() []byte {
	return r.body.Bytes()
}

// IsError reports whether SendError was called.
func (r *ResponseBuffer) IsError() bool {
	return r.isError
}

// ErrorMessage returns the message passed to SendError.
func (r *ResponseBuffer) ErrorMessage() string {
	return r.errorMessage
}

// HasBeenWritten checks if the status code or any body bytes were captured.
func (r *ResponseBuffer) HasBeenWritten() bool {
	return r.written
}

// Discard drops the captured body and error message.
func (r *ResponseBuffer) Discard() {
	r.body.Reset()
	r.errorMessage = ""
}

// Commit writes the captured status code, the body and, for error responses, the error message
// to the wrapped writer.
func (r *ResponseBuffer) Commit() error {
	r.ResponseWriter.WriteHeader(r.statusCode)

	if r.body.Len() > 0 {
		if _, err := r.ResponseWriter.Write(r.body.Bytes()); err != nil {
			return fmt.Errorf("failed to write response body: %w", err)
		}
	}

	if r.isError && r.errorMessage != "" {
		if _, err := r.ResponseWriter.Write([]byte(r.errorMessage)); err != nil {
			return fmt.Errorf("failed to write error message: %w", err)
		}
	}
	return nil
}

// 101 Switching Protocols is final: the connection is handed over to another protocol.
func isInformational(statusCode int) bool {
	return statusCode >= 100 && statusCode < 200 && statusCode != http.StatusSwitchingProtocols
}

// AsResponseBuffer returns w as a ResponseBuffer when it is one.
func AsResponseBuffer(w http.ResponseWriter) (*ResponseBuffer, bool) {
	rb, ok := w.(*ResponseBuffer)
	return rb, ok
}
