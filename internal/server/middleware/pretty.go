package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
)

// DefaultPrettyParam is the query parameter that turns on indented JSON.
const DefaultPrettyParam = "pretty"

// PrettyJSON re-indents JSON responses with two spaces when the request URL
// carries param, with or without a value. Other responses pass unchanged.
func PrettyJSON(param string) Stage {
	if param == "" {
		param = DefaultPrettyParam
	}

	return StageFunc(func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		if !r.URL.Query().Has(param) {
			next.ServeHTTP(w, r)
			return
		}

		buf := &bufferedWriter{ResponseWriter: w}
		next.ServeHTTP(buf, r)

		body := buf.body.Bytes()
		if isJSON(w.Header().Get("Content-Type")) && len(body) > 0 {
			var indented bytes.Buffer
			if err := json.Indent(&indented, bytes.TrimSpace(body), "", "  "); err == nil {
				indented.WriteByte('\n')
				body = indented.Bytes()
			}
		}

		if buf.status == 0 && len(body) == 0 {
			return
		}
		w.Header().Del("Content-Length")
		if buf.status != 0 {
			w.WriteHeader(buf.status)
		}
		_, _ = w.Write(body)
	})
}

// bufferedWriter holds the status and body until the inner chain returns.
type bufferedWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (b *bufferedWriter) WriteHeader(code int) {
	if b.status == 0 {
		b.status = code
	}
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func isJSON(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
