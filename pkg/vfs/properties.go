package vfs

import (
	"net/http"
	"time"
)

// Properties are the protocol-visible attributes of a node.
type Properties struct {
	Name         string
	DisplayName  string
	Size         int64
	ContentType  string
	ETag         string
	Created      time.Time
	Modified     time.Time
	IsCollection bool
}

// ResourceType is "collection" for folders and empty for files.
func (p Properties) ResourceType() string {
	if p.IsCollection {
		return "collection"
	}
	return ""
}

func quoteETag(tag string) string {
	return `"` + tag + `"`
}

// Result is the outcome of a mutating operation. Mutations never return
// errors; callers translate the result into a protocol status.
type Result int

const (
	ResultOK Result = iota
	ResultCreated
	ResultBadRequest
	ResultForbidden
	ResultConflict
	ResultTooLarge
	ResultInternalError
)

// HTTPStatus maps r to an HTTP status code.
func (r Result) HTTPStatus() int {
	switch r {
	case ResultOK:
		return http.StatusOK
	case ResultCreated:
		return http.StatusCreated
	case ResultBadRequest:
		return http.StatusBadRequest
	case ResultForbidden:
		return http.StatusForbidden
	case ResultConflict:
		return http.StatusConflict
	case ResultTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func (r Result) String() string {
	return http.StatusText(r.HTTPStatus())
}
