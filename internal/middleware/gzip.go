package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
)

// gzipWriter откладывает заголовки до первой записи тела: пустой ответ
// уходит без Content-Encoding и без gzip-обвязки.
type gzipWriter struct {
	http.ResponseWriter
	zw      *gzip.Writer
	status  int
	started bool
}

func (w *gzipWriter) Write(b []byte) (int, error) {
	if !w.started {
		w.start(len(b) > 0)
	}
	if w.zw == nil {
		return w.ResponseWriter.Write(b)
	}
	return w.zw.Write(b)
}

func (w *gzipWriter) WriteHeader(status int) {
	if w.started || w.status != 0 {
		return
	}
	w.status = status
}

// start убирает Content-Length: хендлер считал его по несжатому телу.
func (w *gzipWriter) start(hasBody bool) {
	w.started = true
	if w.status == 0 {
		w.status = http.StatusOK
	}
	if hasBody && bodyAllowed(w.status) {
		w.Header().Del("Content-Length")
		w.Header().Set("Content-Encoding", "gzip")
		w.zw = gzip.NewWriter(w.ResponseWriter)
	}
	w.ResponseWriter.WriteHeader(w.status)
}

func (w *gzipWriter) finish() error {
	if !w.started {
		if w.status == 0 {
			return nil
		}
		w.start(false)
	}
	if w.zw == nil {
		return nil
	}
	return w.zw.Close()
}

func bodyAllowed(status int) bool {
	return status >= http.StatusOK && status != http.StatusNoContent && status != http.StatusNotModified
}

type gzipReader struct {
	io.ReadCloser
	zr *gzip.Reader
}

func (r *gzipReader) Read(p []byte) (int, error) { return r.zr.Read(p) }

func (r *gzipReader) Close() error {
	if err := r.ReadCloser.Close(); err != nil {
		return err
	}
	return r.zr.Close()
}

// WithGzip распаковывает gzip-запросы и сжимает ответ, если клиент это поддерживает.
func WithGzip(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
			zr, err := gzip.NewReader(r.Body)
			if err != nil {
				http.Error(w, "bad gzip body", http.StatusBadRequest)
				return
			}
			r.Body = &gzipReader{ReadCloser: r.Body, zr: zr}
		}

		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		gw := &gzipWriter{ResponseWriter: w}
		defer gw.finish()
		next.ServeHTTP(gw, r)
	})
}
