package lambda

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
)

// InitFunc prepares a handler-backed server.
type InitFunc func(ctx context.Context, env map[string]string) error

// handlerServer adapts an http.Handler to Server.
type handlerServer struct {
	handler http.Handler
	init    InitFunc
}

// NewHandlerServer returns a Server serving requests with h. init may be nil.
// The handler can read the original client address with ClientAddress.
//
//nolint:ireturn // Server is the contract consumed by Factory.
func NewHandlerServer(h http.Handler, init InitFunc) Server {
	return &handlerServer{handler: h, init: init}
}

func (s *handlerServer) Init(ctx context.Context, env map[string]string) error {
	if s.init == nil {
		return nil
	}

	return s.init(ctx, env)
}

func (s *handlerServer) Respond(ctx context.Context, r *http.Request, opts RespondOptions) (*http.Response, error) {
	w := newResponseBuffer()
	s.handler.ServeHTTP(w, r.WithContext(WithRespondOptions(ctx, opts)))

	return w.result(r), nil
}

// responseBuffer is an http.ResponseWriter that keeps the reply in memory.
type responseBuffer struct {
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{header: make(http.Header)}
}

func (w *responseBuffer) Header() http.Header {
	return w.header
}

func (w *responseBuffer) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}

	w.status = status
	w.wroteHeader = true
}

func (w *responseBuffer) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}

	return w.body.Write(p)
}

func (w *responseBuffer) result(r *http.Request) *http.Response {
	status := w.status
	if status == 0 {
		status = http.StatusOK
	}

	return &http.Response{
		Status:        strconv.Itoa(status) + " " + http.StatusText(status),
		StatusCode:    status,
		Proto:         r.Proto,
		ProtoMajor:    r.ProtoMajor,
		ProtoMinor:    r.ProtoMinor,
		Header:        w.header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(w.body.Bytes())),
		ContentLength: int64(w.body.Len()),
		Request:       r,
	}
}
