package webdav

import (
	"context"
	"encoding/xml"
	"io"
	"io/fs"
	"os"
	"path"
	"sync"
	"time"

	"golang.org/x/net/webdav"

	"github.com/modelibr/assetdav/pkg/vfs"
)

// nodeMemo caches resolved nodes for the lifetime of one request.
//
// x/net/webdav stats every child it lists during PROPFIND and reopens each
// one to read its properties. Without the memo a Depth: 1 listing of N
// entries would open 2N+1 catalog sessions.
type nodeMemo struct {
	mu    sync.Mutex
	nodes map[string]vfs.Node
	props map[string]vfs.Properties
}

type memoKey struct{}

func withMemo(ctx context.Context) context.Context {
	return context.WithValue(ctx, memoKey{}, &nodeMemo{
		nodes: make(map[string]vfs.Node),
		props: make(map[string]vfs.Properties),
	})
}

func memoFrom(ctx context.Context) *nodeMemo {
	m, _ := ctx.Value(memoKey{}).(*nodeMemo)
	return m
}

// davFS adapts the resolver to webdav.FileSystem. It is read-only; writes
// are handled by the adapter before they reach x/net/webdav.
type davFS struct {
	resolver *vfs.Resolver
	ignore   *ignoreMatcher
}

var _ webdav.FileSystem = (*davFS)(nil)

func cleanPath(name string) string {
	return path.Clean("/" + name)
}

// lookup resolves name, consulting the request memo first. A nil node with
// a nil error means nothing exists at name.
func (f *davFS) lookup(ctx context.Context, name string) (vfs.Node, error) {
	name = cleanPath(name)
	if f.ignore.MatchPath(name) {
		return nil, nil
	}

	memo := memoFrom(ctx)
	if memo != nil {
		memo.mu.Lock()
		n, ok := memo.nodes[name]
		memo.mu.Unlock()
		if ok {
			return n, nil
		}
	}

	n, err := f.resolver.ResolvePath(ctx, name)
	if err != nil {
		return nil, err
	}
	if memo != nil {
		memo.mu.Lock()
		memo.nodes[name] = n
		memo.mu.Unlock()
	}
	return n, nil
}

func (f *davFS) remember(ctx context.Context, name string, n vfs.Node) {
	if memo := memoFrom(ctx); memo != nil {
		memo.mu.Lock()
		memo.nodes[cleanPath(name)] = n
		memo.mu.Unlock()
	}
}

func (f *davFS) properties(ctx context.Context, name string, n vfs.Node) (vfs.Properties, error) {
	name = cleanPath(name)
	memo := memoFrom(ctx)
	if memo != nil {
		memo.mu.Lock()
		p, ok := memo.props[name]
		memo.mu.Unlock()
		if ok {
			return p, nil
		}
	}

	p, err := n.Properties(ctx)
	if err != nil {
		return vfs.Properties{}, err
	}
	if memo != nil {
		memo.mu.Lock()
		memo.props[name] = p
		memo.mu.Unlock()
	}
	return p, nil
}

func (f *davFS) stat(ctx context.Context, name string) (*fileInfo, vfs.Node, error) {
	n, err := f.lookup(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	if n == nil {
		return nil, nil, os.ErrNotExist
	}
	p, err := f.properties(ctx, name, n)
	if err != nil {
		return nil, nil, err
	}
	return &fileInfo{props: p}, n, nil
}

func (f *davFS) Stat(ctx context.Context, name string) (os.FileInfo, error) {
	fi, _, err := f.stat(ctx, name)
	if err != nil {
		return nil, err
	}
	return fi, nil
}

func (f *davFS) OpenFile(ctx context.Context, name string, flag int, perm os.FileMode) (webdav.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0 {
		return nil, os.ErrPermission
	}
	fi, n, err := f.stat(ctx, name)
	if err != nil {
		return nil, err
	}
	return &davFile{ctx: ctx, fs: f, name: cleanPath(name), node: n, info: fi}, nil
}

func (f *davFS) Mkdir(context.Context, string, os.FileMode) error { return os.ErrPermission }
func (f *davFS) RemoveAll(context.Context, string) error          { return os.ErrPermission }
func (f *davFS) Rename(context.Context, string, string) error     { return os.ErrPermission }

// fileInfo exposes vfs.Properties through os.FileInfo plus the optional
// x/net/webdav interfaces for content type and ETag.
type fileInfo struct {
	props vfs.Properties
}

var (
	_ webdav.ContentTyper = (*fileInfo)(nil)
	_ webdav.ETager       = (*fileInfo)(nil)
)

func (fi *fileInfo) Name() string {
	if fi.props.Name == "" {
		return "/"
	}
	return fi.props.Name
}

func (fi *fileInfo) Size() int64 {
	if fi.props.IsCollection {
		return 0
	}
	return fi.props.Size
}

func (fi *fileInfo) Mode() fs.FileMode {
	if fi.props.IsCollection {
		return fs.ModeDir | 0o555
	}
	return 0o444
}

func (fi *fileInfo) ModTime() time.Time { return fi.props.Modified }
func (fi *fileInfo) IsDir() bool        { return fi.props.IsCollection }
func (fi *fileInfo) Sys() any           { return nil }

func (fi *fileInfo) ContentType(context.Context) (string, error) {
	if fi.props.ContentType == "" {
		return "application/octet-stream", nil
	}
	return fi.props.ContentType, nil
}

func (fi *fileInfo) ETag(context.Context) (string, error) {
	if fi.props.ETag == "" {
		return "", webdav.ErrNotImplemented
	}
	return fi.props.ETag, nil
}

// davFile is an opened node. Item content is opened on first read.
type davFile struct {
	ctx  context.Context
	fs   *davFS
	name string
	node vfs.Node
	info *fileInfo

	content *vfs.Content
}

var _ webdav.DeadPropsHolder = (*davFile)(nil)

func (f *davFile) Stat() (fs.FileInfo, error) { return f.info, nil }

func (f *davFile) Readdir(count int) ([]fs.FileInfo, error) {
	c, ok := f.node.(*vfs.Collection)
	if !ok {
		return nil, os.ErrInvalid
	}

	children := c.Enumerate()
	out := make([]fs.FileInfo, 0, len(children))
	for _, child := range children {
		if f.fs.ignore.Match(child.Name()) {
			continue
		}
		childPath := path.Join(f.name, child.Name())
		// Placeholders only carry listing properties. That is all a
		// Depth: 1 walk reads from them, and the walk never descends.
		f.fs.remember(f.ctx, childPath, child)
		p, err := f.fs.properties(f.ctx, childPath, child)
		if err != nil {
			return nil, err
		}
		out = append(out, &fileInfo{props: p})
		if count > 0 && len(out) == count {
			break
		}
	}
	return out, nil
}

func (f *davFile) open() error {
	if f.content != nil {
		return nil
	}
	it, ok := f.node.(*vfs.Item)
	if !ok {
		return os.ErrInvalid
	}
	c, err := it.Open(f.ctx)
	if err != nil {
		return err
	}
	f.content = c
	return nil
}

func (f *davFile) Read(p []byte) (int, error) {
	if err := f.open(); err != nil {
		return 0, err
	}
	return f.content.Read(p)
}

func (f *davFile) Seek(offset int64, whence int) (int64, error) {
	if err := f.open(); err != nil {
		return 0, err
	}
	return f.content.Seek(offset, whence)
}

func (f *davFile) Write([]byte) (int, error) { return 0, os.ErrPermission }

func (f *davFile) Close() error {
	if f.content == nil {
		return nil
	}
	return f.content.Close()
}

var creationDate = xml.Name{Space: "DAV:", Local: "creationdate"}

// DeadProps reports creationdate, which x/net/webdav has no live
// implementation for.
func (f *davFile) DeadProps() (map[xml.Name]webdav.Property, error) {
	created := f.info.props.Created
	if created.IsZero() {
		return nil, nil
	}
	return map[xml.Name]webdav.Property{
		creationDate: {
			XMLName:  creationDate,
			InnerXML: []byte(created.UTC().Format(time.RFC3339)),
		},
	}, nil
}

func (f *davFile) Patch([]webdav.Proppatch) ([]webdav.Propstat, error) {
	return nil, os.ErrPermission
}

var _ io.ReadSeeker = (*davFile)(nil)
