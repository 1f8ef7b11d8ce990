package middleware

import (
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// BrotliConfig controls response compression.
type BrotliConfig struct {
	Quality   int
	MinLength int
	Skipper   func(c *gin.Context) bool
}

var DefaultBrotliConfig = BrotliConfig{
	Quality:   5,
	MinLength: 1024,
}

// compressibleTypes are the content types worth compressing; everything
// else (already compressed media, binary blobs) passes through.
var compressibleTypes = []string{
	"text/",
	"application/json",
	"application/javascript",
	"application/openmetrics-text",
}

// brotliWriter holds the body back until MinLength bytes are seen, then
// decides once between brotli and plain output.
type brotliWriter struct {
	gin.ResponseWriter
	quality   int
	minLength int
	buf       []byte
	br        *brotli.Writer
	plain     bool
}

func (w *brotliWriter) Write(data []byte) (int, error) {
	switch {
	case w.br != nil:
		return w.br.Write(data)
	case w.plain:
		return w.ResponseWriter.Write(data)
	}

	w.buf = append(w.buf, data...)
	if len(w.buf) < w.minLength {
		return len(data), nil
	}

	if !compressible(w.Header().Get("Content-Type")) {
		return len(data), w.release()
	}

	w.Header().Set("Content-Encoding", "br")
	w.Header().Del("Content-Length")
	w.br = brotli.NewWriterLevel(w.ResponseWriter, w.quality)
	if _, err := w.br.Write(w.buf); err != nil {
		return 0, err
	}
	w.buf = nil
	return len(data), nil
}

func (w *brotliWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Flush sends whatever is pending. A body that has not reached MinLength
// goes out uncompressed.
func (w *brotliWriter) Flush() {
	if w.br != nil {
		_ = w.br.Flush()
	} else {
		_ = w.release()
	}
	w.ResponseWriter.Flush()
}

// release switches to plain output and writes the held-back bytes.
func (w *brotliWriter) release() error {
	w.plain = true
	if len(w.buf) == 0 {
		return nil
	}
	_, err := w.ResponseWriter.Write(w.buf)
	w.buf = nil
	return err
}

func (w *brotliWriter) finish() error {
	if w.br != nil {
		return w.br.Close()
	}
	return w.release()
}

// Brotli compresses responses with the default settings.
func Brotli() gin.HandlerFunc {
	return BrotliWithConfig(DefaultBrotliConfig)
}

func BrotliWithConfig(cfg BrotliConfig) gin.HandlerFunc {
	if cfg.Quality < brotli.BestSpeed || cfg.Quality > brotli.BestCompression {
		cfg.Quality = DefaultBrotliConfig.Quality
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultBrotliConfig.MinLength
	}

	return func(c *gin.Context) {
		// WebSocket upgrades must reach the handler with the raw writer.
		if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") ||
			(cfg.Skipper != nil && cfg.Skipper(c)) ||
			!acceptsBrotli(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")

		w := &brotliWriter{
			ResponseWriter: c.Writer,
			quality:        cfg.Quality,
			minLength:      cfg.MinLength,
		}
		c.Writer = w
		defer func() {
			if err := w.finish(); err != nil {
				_ = c.Error(err)
			}
		}()

		c.Next()
	}
}

func compressible(contentType string) bool {
	ct := strings.ToLower(contentType)
	for _, prefix := range compressibleTypes {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}
	return false
}

func acceptsBrotli(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, _, _ := strings.Cut(strings.TrimSpace(enc), ";")
		if strings.EqualFold(name, "br") {
			return true
		}
	}
	return false
}
