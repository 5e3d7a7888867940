package middleware

import (
	"bytes"
	"net/http"
)

// responseBuffer holds a response back until it has been validated.
// Headers go straight to the wrapped writer but are not sent before flush.
type responseBuffer struct {
	w      http.ResponseWriter
	status int
	body   bytes.Buffer
}

func newResponseBuffer(w http.ResponseWriter) *responseBuffer {
	return &responseBuffer{w: w}
}

func (b *responseBuffer) Header() http.Header { return b.w.Header() }

func (b *responseBuffer) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *responseBuffer) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *responseBuffer) statusCode() int {
	if b.status == 0 {
		return http.StatusOK
	}
	return b.status
}

func (b *responseBuffer) flush() {
	b.w.WriteHeader(b.statusCode())
	_, _ = b.w.Write(b.body.Bytes())
}
