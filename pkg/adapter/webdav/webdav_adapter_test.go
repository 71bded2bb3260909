package webdav

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/png"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blobmemory "github.com/modelibr/assetdav/pkg/blob/memory"
	"github.com/modelibr/assetdav/pkg/catalog"
	"github.com/modelibr/assetdav/pkg/catalog/memory"
	cattest "github.com/modelibr/assetdav/pkg/catalog/testing"
	"github.com/modelibr/assetdav/pkg/commands"
	"github.com/modelibr/assetdav/pkg/vfs"
)

type recordedMetrics struct {
	mu          sync.Mutex
	requests    []string
	uploads     []string
	rateLimited int
	bytes       map[string]int64
}

func (m *recordedMetrics) RecordRequest(method string, status int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, method+" "+http.StatusText(status))
}
func (m *recordedMetrics) RecordRequestStart(string) {}
func (m *recordedMetrics) RecordRequestEnd(string)   {}
func (m *recordedMetrics) RecordBytesTransferred(direction string, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bytes == nil {
		m.bytes = make(map[string]int64)
	}
	m.bytes[direction] += n
}
func (m *recordedMetrics) RecordUpload(kind, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, kind+":"+outcome)
}
func (m *recordedMetrics) RecordRateLimited() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimited++
}

type harness struct {
	adapter *WebDAVAdapter
	handler http.Handler
	fx      *cattest.Fixture
	metrics *recordedMetrics
}

func newHarness(t *testing.T, cfg WebDAVConfig) *harness {
	t.Helper()
	store := memory.NewMemoryCatalog(memory.MemoryCatalogConfig{})
	return newHarnessWithStore(t, cfg, store, store)
}

func newHarnessWithStore(t *testing.T, cfg WebDAVConfig, read catalog.Store, write *memory.MemoryCatalog) *harness {
	t.Helper()

	fx := cattest.BuildFixture(t, write)
	blobs := blobmemory.NewMemoryBlobStore()
	for hash, data := range fx.Blobs {
		require.NoError(t, blobs.PutRaw(hash, data))
	}

	resolver, err := vfs.NewResolver(vfs.ResolverConfig{
		Catalog:  read,
		Blobs:    blobs,
		Commands: commands.NewService(write, blobs),
		Prefix:   cfg.Prefix,
	})
	require.NoError(t, err)

	m := &recordedMetrics{}
	a := New(cfg, m)
	a.SetResolver(resolver)
	return &harness{adapter: a, handler: a.Handler(), fx: fx, metrics: m}
}

func (h *harness) do(method, target string, body []byte, headers ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func TestGetStoredFile(t *testing.T) {
	h := newHarness(t, WebDAVConfig{})

	rec := h.do(http.MethodGet, "/Projects/Acme/Models/Crate/v1/crate.fbx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "crate-v1", rec.Body.String())
	assert.Equal(t, `"`+cattest.HashOf([]byte("crate-v1"))+`"`, rec.Header().Get("ETag"))
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = h.do(http.MethodGet, "/Projects/Acme/Models/Crate/v1/crate.fbx", nil, "Range", "bytes=0-4")
	require.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "crate", rec.Body.String())

	rec = h.do(http.MethodHead, "/Projects/Acme/Sprites/icon_sword.png", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "9", rec.Header().Get("Content-Length"))
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
}

func TestGetErrors(t *testing.T) {
	h := newHarness(t, WebDAVConfig{})

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/Projects/Acme/Models/Crate/v3/crate.fbx", nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/Nowhere", nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/Projects/Acme/Sprites/.DS_Store", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, h.do(http.MethodGet, "/Projects/Acme", nil).Code)
}

func TestGetDerivedTexture(t *testing.T) {
	h := newHarness(t, WebDAVConfig{})

	rec := h.do(http.MethodGet, "/Projects/Acme/TextureSets/CrateMaterial/TextureTypes/Roughness.png", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	img, format, err := image.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.True(t, strings.HasSuffix(rec.Header().Get("ETag"), `-R"`))
}

func TestPropfind(t *testing.T) {
	h := newHarness(t, WebDAVConfig{})

	rec := h.do(methodPropfind, "/", nil)
	require.Equal(t, http.StatusMultiStatus, rec.Code)
	body := rec.Body.String()
	for _, href := range []string{"/Projects/", "/Sounds/", "/Sprites/", "/Packs/", "/Selection/"} {
		assert.Contains(t, body, href)
	}
	assert.Contains(t, body, "collection")

	rec = h.do(methodPropfind, "/Projects/Acme/Models/Crate", nil, "Depth", "1")
	require.Equal(t, http.StatusMultiStatus, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "/Projects/Acme/Models/Crate/v1/")
	assert.Contains(t, body, "/Projects/Acme/Models/Crate/newest/")
	assert.NotContains(t, body, "/v3/")

	rec = h.do(methodPropfind, "/Projects/Acme/Models/Crate/v1/crate.fbx", nil, "Depth", "0")
	require.Equal(t, http.StatusMultiStatus, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, cattest.HashOf([]byte("crate-v1")))
	assert.Contains(t, body, "getcontentlength")
	assert.Contains(t, body, "creationdate")
}

func TestPropfindDepth(t *testing.T) {
	h := newHarness(t, WebDAVConfig{})

	assert.Equal(t, http.StatusForbidden, h.do(methodPropfind, "/", nil, "Depth", "infinity").Code)
	assert.Equal(t, http.StatusBadRequest, h.do(methodPropfind, "/", nil, "Depth", "2").Code)
	assert.Equal(t, http.StatusNotFound, h.do(methodPropfind, "/Projects/Nope", nil, "Depth", "0").Code)

	rec := h.do(methodPropfind, "/Projects", nil, "Depth", "0")
	require.Equal(t, http.StatusMultiStatus, rec.Code)
	assert.NotContains(t, rec.Body.String(), "/Projects/Acme/")
}

func TestPrefix(t *testing.T) {
	h := newHarness(t, WebDAVConfig{Prefix: "/dav/"})

	rec := h.do(http.MethodGet, "/dav/Projects/Acme/Models/Lamp/newest/lamp.obj", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "o lamp", rec.Body.String())

	rec = h.do(methodPropfind, "/dav/Projects", nil, "Depth", "1")
	require.Equal(t, http.StatusMultiStatus, rec.Code)
	assert.Contains(t, rec.Body.String(), "/dav/Projects/Acme/")
}

func TestPutUpload(t *testing.T) {
	h := newHarness(t, WebDAVConfig{})

	rec := h.do(http.MethodPut, "/Projects/Acme/Sprites/icon.png", []byte("new-icon"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.do(http.MethodGet, "/Projects/Acme/Sprites/icon.png", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "new-icon", rec.Body.String())

	rec = h.do(http.MethodPut, "/Projects/Acme/Sprites/empty.png", []byte{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/Projects/Acme/Sprites/empty.png", nil).Code)

	assert.Equal(t, http.StatusCreated, h.do(http.MethodPut, "/Projects/Acme/Sounds/zap.wav", []byte("RIFF")).Code)

	assert.Equal(t, []string{"sprite:created", "sprite:bad_request", "sound:created"}, h.metrics.uploads)
	assert.Equal(t, int64(len("new-icon")+len("RIFF")), h.metrics.bytes["write"])
}

func TestPutRejections(t *testing.T) {
	h := newHarness(t, WebDAVConfig{MaxRequestBodyBytes: 8})

	cases := []struct {
		target string
		body   string
		want   int
	}{
		{"/Packs/Starter/Sprites/icon.png", "x", http.StatusForbidden},
		{"/Projects/Acme/Models/icon.png", "x", http.StatusForbidden},
		{"/Projects/Acme/Sprites/icon_sword.png", "x", http.StatusForbidden},
		{"/Projects/Acme/Sprites/._icon.png", "x", http.StatusForbidden},
		{"/Projects/Acme/Sprites/Thumbs.db", "x", http.StatusForbidden},
		{"/Projects/Nope/Sprites/icon.png", "x", http.StatusConflict},
		{"/Projects/Acme/Sprites/icon_sword.png/child.png", "x", http.StatusConflict},
		{"/Projects/Acme/Sprites/big.png", "0123456789", http.StatusRequestEntityTooLarge},
		{"/", "x", http.StatusForbidden},
	}
	for _, tc := range cases {
		rec := h.do(http.MethodPut, tc.target, []byte(tc.body))
		assert.Equal(t, tc.want, rec.Code, tc.target)
	}
}

func TestReadOnlyMethods(t *testing.T) {
	h := newHarness(t, WebDAVConfig{})

	for _, m := range []string{http.MethodDelete, methodCopy, methodMove} {
		rec := h.do(m, "/Projects/Acme/Models/Crate/v1/crate.fbx", nil, "Destination", "/Projects/Empty/x")
		assert.Equal(t, http.StatusForbidden, rec.Code, m)
		assert.Equal(t, http.StatusForbidden, h.do(m, "/Projects/Nope", nil).Code, m)
	}
	for _, m := range []string{methodMkcol, methodProppatch, http.MethodPost} {
		assert.Equal(t, http.StatusForbidden, h.do(m, "/Projects/Acme/NewFolder", nil).Code, m)
	}

	// The file is still there.
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/Projects/Acme/Models/Crate/v1/crate.fbx", nil).Code)
}

func TestLockIsRefused(t *testing.T) {
	h := newHarness(t, WebDAVConfig{})

	lockBody := []byte(`<?xml version="1.0"?><D:lockinfo xmlns:D="DAV:"><D:lockscope><D:exclusive/></D:lockscope><D:locktype><D:write/></D:locktype></D:lockinfo>`)
	assert.Equal(t, http.StatusPreconditionFailed, h.do(methodLock, "/Projects/Acme/Sprites/icon_sword.png", lockBody).Code)
	assert.Equal(t, http.StatusPreconditionFailed, h.do(methodLock, "/Projects/Acme/Sprites/icon_sword.png", nil, "If", "(<opaquelocktoken:abc>)").Code)
	assert.Equal(t, http.StatusPreconditionFailed, h.do(methodUnlock, "/Projects/Acme/Sprites/icon_sword.png", nil, "Lock-Token", "<opaquelocktoken:abc>").Code)
}

func TestOptions(t *testing.T) {
	h := newHarness(t, WebDAVConfig{})

	rec := h.do(http.MethodOptions, "/Projects/Acme/Sprites", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Allow"), "PUT")
	assert.Equal(t, "1, 2", rec.Header().Get("DAV"))

	rec = h.do(http.MethodOptions, "/Packs/Starter/Sprites", nil)
	assert.NotContains(t, rec.Header().Get("Allow"), "PUT")

	assert.Equal(t, http.StatusMethodNotAllowed, h.do("PATCH", "/", nil).Code)
}

func TestRateLimit(t *testing.T) {
	h := newHarness(t, WebDAVConfig{RateLimit: RateLimitConfig{RequestsPerSecond: 1, Burst: 1}})

	assert.Equal(t, http.StatusOK, h.do(http.MethodOptions, "/", nil).Code)
	rec := h.do(http.MethodOptions, "/", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, 1, h.metrics.rateLimited)
	assert.Equal(t, []string{"OPTIONS OK", "OPTIONS Service Unavailable"}, h.metrics.requests)
}

type brokenStore struct {
	catalog.Store
}

func (brokenStore) Session(context.Context) (catalog.Session, error) {
	return nil, errors.New("database is locked")
}

func TestCatalogFailureIsInternalError(t *testing.T) {
	store := memory.NewMemoryCatalog(memory.MemoryCatalogConfig{})
	h := newHarnessWithStore(t, WebDAVConfig{}, brokenStore{Store: store}, store)

	assert.Equal(t, http.StatusInternalServerError, h.do(http.MethodGet, "/Projects/Acme", nil).Code)
	assert.Equal(t, http.StatusInternalServerError, h.do(methodPropfind, "/Projects", nil).Code)
	assert.Equal(t, http.StatusInternalServerError, h.do(http.MethodPut, "/Projects/Acme/Sprites/x.png", []byte("x")).Code)

	// The root needs no session.
	assert.Equal(t, http.StatusMultiStatus, h.do(methodPropfind, "/", nil, "Depth", "0").Code)
}

func TestServeAndStop(t *testing.T) {
	h := newHarness(t, WebDAVConfig{ShutdownTimeout: time.Second})

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- h.adapter.serve(ctx, listener) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + listener.Addr().String() + "/Projects/Acme/Models/Crate/v2/crate.fbx")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK && string(data) == "crate-v2"
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, port, h.adapter.Port())
	assert.Equal(t, "WebDAV", h.adapter.Protocol())

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}
	assert.NoError(t, h.adapter.Stop(context.Background()))
}

func TestStopBeforeServe(t *testing.T) {
	h := newHarness(t, WebDAVConfig{})
	require.NoError(t, h.adapter.Stop(context.Background()))

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	assert.NoError(t, h.adapter.serve(context.Background(), listener))
}

type brokenListener struct {
	net.Listener
}

func (brokenListener) Accept() (net.Conn, error) {
	return nil, errors.New("accept failed")
}

func TestServeFailureStopsAdapter(t *testing.T) {
	h := newHarness(t, WebDAVConfig{ShutdownTimeout: time.Second})

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	err = h.adapter.serve(context.Background(), brokenListener{listener})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accept failed")

	select {
	case <-h.adapter.done:
	case <-time.After(2 * time.Second):
		t.Fatal("adapter not marked stopped after serve failure")
	}
	assert.NoError(t, h.adapter.Stop(context.Background()))
}

func TestConfigDefaultsAndValidation(t *testing.T) {
	var cfg WebDAVConfig
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, int64(256<<20), cfg.MaxRequestBodyBytes)
	assert.Equal(t, DefaultIgnorePatterns, cfg.IgnorePatterns)

	bad := WebDAVConfig{IgnorePatterns: []string{"[abc"}}
	bad.ApplyDefaults()
	assert.Error(t, bad.Validate())

	bad = WebDAVConfig{Prefix: "a/b"}
	bad.ApplyDefaults()
	assert.Error(t, bad.Validate())

	assert.Panics(t, func() { New(WebDAVConfig{Port: 70000}, nil) })
}

func TestIgnoreMatcher(t *testing.T) {
	m := newIgnoreMatcher(DefaultIgnorePatterns)

	for _, name := range []string{".DS_Store", "._crate.fbx", "thumbs.db", "Desktop.ini", "~$doc.docx"} {
		assert.True(t, m.Match(name), name)
	}
	for _, name := range []string{"crate.fbx", "icon_sword.png", "Thumbs.png"} {
		assert.False(t, m.Match(name), name)
	}
	assert.True(t, m.MatchPath("/Projects/Acme/._x/y"))
	assert.False(t, m.MatchPath("/Projects/Acme/Sprites"))
}
