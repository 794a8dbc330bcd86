package server

import (
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// staticFallback serves a single-page application for paths no route
// matched: asset requests get the file, everything else gets the entry
// document so client-side routing can take over.
type staticFallback struct {
	fsys      fs.FS
	index     string
	apiPrefix string
}

func newStaticFallback(fsys fs.FS, index, apiPrefix string) *staticFallback {
	if strings.TrimSpace(index) == "" {
		index = "index.html"
	}
	return &staticFallback{
		fsys:      fsys,
		index:     strings.TrimPrefix(index, "/"),
		apiPrefix: strings.TrimRight(apiPrefix, "/"),
	}
}

// serve writes a response and returns true when the request belongs to the
// fallback. API paths and non-GET/HEAD methods are left to the JSON 404.
func (sf *staticFallback) serve(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}

	p := path.Clean("/" + r.URL.Path)
	if sf.isAPIPath(p) {
		return false
	}

	last := path.Base(p)
	if p == "/" || !strings.Contains(last, ".") {
		return sf.serveIndex(w, r)
	}

	name := strings.TrimPrefix(p, "/")
	if !fs.ValidPath(name) {
		return sf.serveIndex(w, r)
	}
	info, err := fs.Stat(sf.fsys, name)
	if err != nil || info.IsDir() {
		return sf.serveIndex(w, r)
	}

	http.ServeFileFS(w, r, sf.fsys, name)
	return true
}

func (sf *staticFallback) isAPIPath(p string) bool {
	if sf.apiPrefix == "" {
		return false
	}
	return p == sf.apiPrefix || strings.HasPrefix(p, sf.apiPrefix+"/")
}

func (sf *staticFallback) serveIndex(w http.ResponseWriter, r *http.Request) bool {
	data, err := fs.ReadFile(sf.fsys, sf.index)
	if err != nil {
		return false
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(data)
	}
	return true
}
