package selection

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelibr/assetdav/pkg/catalog/memory"
	cattest "github.com/modelibr/assetdav/pkg/catalog/testing"
)

func TestControlEndpoint(t *testing.T) {
	store := memory.NewMemoryCatalog(memory.MemoryCatalogConfig{})
	fx := cattest.BuildFixture(t, store)
	slot := NewSlot()
	h := Handler(slot, store)

	do := func(method, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/selection", strings.NewReader(body)))
		return rec
	}

	assert.Equal(t, http.StatusNoContent, do(http.MethodGet, "").Code)

	boom := fx.Files["boom.wav"]
	rec := do(http.MethodPut, fmt.Sprintf(`{"fileId":%d,"startSeconds":0.5,"endSeconds":1.25}`, boom.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	var got payload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "boomSelection.wav", got.Name)
	assert.Equal(t, "boom.wav", got.FileName)

	sel, ok := slot.Get()
	require.True(t, ok)
	assert.Equal(t, boom.ID, sel.FileID)
	assert.Equal(t, 1.25, sel.End)

	rec = do(http.MethodGet, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"startSeconds":0.5`)

	assert.Equal(t, http.StatusNotFound, do(http.MethodPut, `{"fileId":9999,"startSeconds":0,"endSeconds":1}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodPut, fmt.Sprintf(`{"fileId":%d,"startSeconds":2,"endSeconds":1}`, boom.ID)).Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodPut, `{not json`).Code)

	// Rejected updates leave the slot untouched.
	sel, _ = slot.Get()
	assert.Equal(t, boom.ID, sel.FileID)

	assert.Equal(t, http.StatusNoContent, do(http.MethodDelete, "").Code)
	_, ok = slot.Get()
	assert.False(t, ok)

	assert.Equal(t, http.StatusMethodNotAllowed, do(http.MethodPost, "").Code)
}
