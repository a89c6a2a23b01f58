package mw

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cacheEntry struct {
	status   int
	header   http.Header
	body     []byte
	storedAt time.Time
}

// recordingWriter tees the response body into buf.
type recordingWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// cacheKey is the path plus the query with its parameters sorted.
func cacheKey(r *http.Request) string {
	q := r.URL.Query().Encode()
	if q == "" {
		return r.URL.Path
	}
	return r.URL.Path + "?" + q
}

// Cache serves repeated anonymous GET requests from memory for ttl. Requests
// carrying credentials bypass it, and only 2xx responses without
// "Cache-Control: no-store" are kept.
func Cache(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || c.GetHeader("Authorization") != "" {
			c.Next()
			return
		}

		key := cacheKey(c.Request)
		if v, ok := store.Get(key); ok {
			entry := v.(cacheEntry)
			h := c.Writer.Header()
			for k, vals := range entry.header {
				h[k] = vals
			}
			h.Set("X-Cache", "HIT")
			h.Set("Age", strconv.Itoa(int(time.Since(entry.storedAt)/time.Second)))
			c.Writer.WriteHeader(entry.status)
			_, _ = c.Writer.Write(entry.body)
			c.Abort()
			return
		}

		rec := &recordingWriter{ResponseWriter: c.Writer, buf: &bytes.Buffer{}}
		c.Writer = rec
		c.Writer.Header().Set("X-Cache", "MISS")
		c.Next()

		status := rec.Status()
		if status < 200 || status >= 300 || strings.Contains(rec.Header().Get("Cache-Control"), "no-store") {
			return
		}
		header := rec.Header().Clone()
		header.Del("X-Cache")
		store.Set(key, cacheEntry{
			status:   status,
			header:   header,
			body:     rec.buf.Bytes(),
			storedAt: time.Now(),
		}, ttl)
	}
}
