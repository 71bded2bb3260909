package webdav

import (
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/webdav"

	"github.com/modelibr/assetdav/internal/logger"
	"github.com/modelibr/assetdav/pkg/vfs"
)

const (
	methodPropfind  = "PROPFIND"
	methodProppatch = "PROPPATCH"
	methodMkcol     = "MKCOL"
	methodCopy      = "COPY"
	methodMove      = "MOVE"
	methodLock      = "LOCK"
	methodUnlock    = "UNLOCK"
)

const (
	allowRead  = "OPTIONS, GET, HEAD, PROPFIND, LOCK, UNLOCK"
	allowWrite = allowRead + ", PUT"
)

// Handler returns the adapter's HTTP handler. Serve mounts it on its own
// server; tests can drive it through httptest.
//
// SetResolver must have been called.
func (s *WebDAVAdapter) Handler() http.Handler {
	dav := &webdav.Handler{
		FileSystem: s.fs,
		LockSystem: s.locks,
		Logger: func(r *http.Request, err error) {
			if err != nil {
				logger.Debug("WebDAV %s %s: %v", r.Method, r.URL.Path, err)
			}
		},
	}

	h := http.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.dispatch(w, r, dav)
	}))
	h = s.limiter.Middleware(h, func(*http.Request) { s.metrics.RecordRateLimited() })
	return s.instrument(h)
}

// instrument tags the request with an id and a resolution memo, and records
// metrics once it completes.
func (s *WebDAVAdapter) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := uuid.NewString()

		s.inFlight.Add(1)
		s.metrics.RecordRequestStart(r.Method)
		defer func() {
			s.inFlight.Add(-1)
			s.metrics.RecordRequestEnd(r.Method)
		}()

		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		rec.Header().Set("X-Request-Id", reqID)

		body := &countingReader{r: r.Body}
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = body
		}
		r = r.WithContext(withMemo(r.Context()))

		logger.Debug("[%s] %s %s depth=%q", reqID, r.Method, r.URL.Path, r.Header.Get("Depth"))
		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		s.metrics.RecordRequest(r.Method, rec.status, duration)
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			s.metrics.RecordBytesTransferred("read", rec.bytes)
		case http.MethodPut:
			s.metrics.RecordBytesTransferred("write", body.n)
		}
		logger.Debug("[%s] %s %s -> %d (%d bytes, %v)", reqID, r.Method, r.URL.Path, rec.status, rec.bytes, duration)
	})
}

func (s *WebDAVAdapter) dispatch(w http.ResponseWriter, r *http.Request, dav http.Handler) {
	switch r.Method {
	case http.MethodOptions:
		s.handleOptions(w, r)
	case http.MethodGet, http.MethodHead:
		s.handleGet(w, r)
	case methodPropfind:
		s.handlePropfind(w, r, dav)
	case http.MethodPut:
		s.handlePut(w, r)
	case http.MethodDelete, methodCopy, methodMove:
		s.handleMutation(w, r)
	case methodMkcol, methodProppatch, http.MethodPost:
		drain(r)
		writeStatus(w, http.StatusForbidden)
	case methodLock, methodUnlock:
		s.handleLock(w, r)
	default:
		w.Header().Set("Allow", allowRead)
		writeStatus(w, http.StatusMethodNotAllowed)
	}
}

// resolve maps a request path to a node, writing 404 or 500 itself when
// there is nothing to serve.
func (s *WebDAVAdapter) resolve(w http.ResponseWriter, r *http.Request) (vfs.Node, bool) {
	node, err := s.fs.lookup(r.Context(), r.URL.Path)
	if err != nil {
		logger.Error("Failed to resolve %s: %v", r.URL.Path, err)
		writeStatus(w, http.StatusInternalServerError)
		return nil, false
	}
	if node == nil {
		writeStatus(w, http.StatusNotFound)
		return nil, false
	}
	return node, true
}

func (s *WebDAVAdapter) handleOptions(w http.ResponseWriter, r *http.Request) {
	allow := allowRead
	if node, err := s.fs.lookup(r.Context(), r.URL.Path); err == nil {
		if c, ok := node.(*vfs.Collection); ok && c.Writable() {
			allow = allowWrite
		}
	}
	w.Header().Set("Allow", allow)
	w.Header().Set("DAV", "1, 2")
	w.Header().Set("MS-Author-Via", "DAV")
	w.WriteHeader(http.StatusOK)
}

func (s *WebDAVAdapter) handleGet(w http.ResponseWriter, r *http.Request) {
	node, ok := s.resolve(w, r)
	if !ok {
		return
	}
	item, ok := node.(*vfs.Item)
	if !ok {
		w.Header().Set("Allow", allowRead)
		writeStatus(w, http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	props, err := s.fs.properties(ctx, r.URL.Path, item)
	if err != nil {
		logger.Error("Failed to read properties of %s: %v", r.URL.Path, err)
		writeStatus(w, http.StatusInternalServerError)
		return
	}
	content, err := item.Open(ctx)
	if err != nil {
		logger.Error("Failed to open %s: %v", r.URL.Path, err)
		writeStatus(w, http.StatusInternalServerError)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", content.MimeType)
	if props.ETag != "" {
		w.Header().Set("ETag", props.ETag)
	}
	http.ServeContent(w, r, item.Name(), props.Modified, content)
}

func (s *WebDAVAdapter) handlePropfind(w http.ResponseWriter, r *http.Request, dav http.Handler) {
	switch depth := r.Header.Get("Depth"); {
	case depth == "":
		r.Header.Set("Depth", "1")
	case depth == "0" || depth == "1":
	case strings.EqualFold(depth, "infinity"):
		drain(r)
		writeStatus(w, http.StatusForbidden)
		return
	default:
		drain(r)
		writeStatus(w, http.StatusBadRequest)
		return
	}

	if _, ok := s.resolve(w, r); !ok {
		return
	}
	dav.ServeHTTP(w, r)
}

func (s *WebDAVAdapter) handlePut(w http.ResponseWriter, r *http.Request) {
	p := cleanPath(r.URL.Path)
	name := path.Base(p)
	if p == "/" || s.ignore.Match(name) {
		drain(r)
		writeStatus(w, http.StatusForbidden)
		return
	}
	if r.ContentLength > s.config.MaxRequestBodyBytes {
		writeStatus(w, http.StatusRequestEntityTooLarge)
		return
	}

	parent, err := s.fs.lookup(r.Context(), path.Dir(p))
	if err != nil {
		logger.Error("Failed to resolve parent of %s: %v", p, err)
		writeStatus(w, http.StatusInternalServerError)
		return
	}
	coll, ok := parent.(*vfs.Collection)
	if !ok {
		drain(r)
		writeStatus(w, http.StatusConflict)
		return
	}

	body := http.MaxBytesReader(w, r.Body, s.config.MaxRequestBodyBytes)
	result := coll.CreateChild(r.Context(), name, body)
	if kind := coll.UploadKind(); kind != "" {
		s.metrics.RecordUpload(kind, uploadOutcome(result))
	}
	if result == vfs.ResultCreated {
		logger.Info("Uploaded %s", p)
	}
	writeStatus(w, result.HTTPStatus())
}

func uploadOutcome(r vfs.Result) string {
	switch r {
	case vfs.ResultCreated:
		return "created"
	case vfs.ResultBadRequest, vfs.ResultTooLarge:
		return "bad_request"
	case vfs.ResultForbidden, vfs.ResultConflict:
		return "forbidden"
	default:
		return "error"
	}
}

// handleMutation answers DELETE, COPY and MOVE. The tree is read-only, so
// they are forbidden whether or not the source exists.
func (s *WebDAVAdapter) handleMutation(w http.ResponseWriter, r *http.Request) {
	drain(r)
	node, err := s.fs.lookup(r.Context(), r.URL.Path)
	if err != nil || node == nil {
		writeStatus(w, http.StatusForbidden)
		return
	}

	var result vfs.Result
	dst := r.Header.Get("Destination")
	switch r.Method {
	case http.MethodDelete:
		result = node.Delete(r.Context())
	case methodCopy:
		result = node.CopyTo(r.Context(), dst)
	default:
		result = node.MoveTo(r.Context(), dst)
	}
	writeStatus(w, result.HTTPStatus())
}

// handleLock answers LOCK and UNLOCK from the deny lock system: every
// request fails with 412.
func (s *WebDAVAdapter) handleLock(w http.ResponseWriter, r *http.Request) {
	drain(r)
	now := time.Now()

	var err error
	switch {
	case r.Method == methodUnlock:
		err = s.locks.Unlock(now, strings.Trim(r.Header.Get("Lock-Token"), "<> "))
	case r.ContentLength == 0 && r.Header.Get("If") != "":
		_, err = s.locks.Refresh(now, strings.Trim(r.Header.Get("If"), "()<> "), 0)
	default:
		_, err = s.locks.Create(now, webdav.LockDetails{
			Root:      cleanPath(r.URL.Path),
			ZeroDepth: r.Header.Get("Depth") == "0",
		})
	}
	logger.Debug("%s %s refused: %v", r.Method, r.URL.Path, err)
	writeStatus(w, http.StatusPreconditionFailed)
}

func writeStatus(w http.ResponseWriter, status int) {
	http.Error(w, http.StatusText(status), status)
}

// drain discards a bounded amount of an unused request body so the
// connection can be reused.
func drain(r *http.Request) {
	if r.Body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(r.Body, 64<<10))
	}
}

type responseRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

func (rw *responseRecorder) WriteHeader(status int) {
	if !rw.wroteHeader {
		rw.status = status
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseRecorder) Write(p []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(p)
	rw.bytes += int64(n)
	return n, err
}

func (rw *responseRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

type countingReader struct {
	r io.ReadCloser
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReader) Close() error {
	return c.r.Close()
}
