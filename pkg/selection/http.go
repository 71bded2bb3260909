package selection

import (
	"encoding/json"
	"net/http"

	"github.com/modelibr/assetdav/internal/logger"
	"github.com/modelibr/assetdav/pkg/catalog"
)

// payload is the JSON shape of the control endpoint.
type payload struct {
	FileID       int64   `json:"fileId"`
	StartSeconds float64 `json:"startSeconds"`
	EndSeconds   float64 `json:"endSeconds"`
	FileName     string  `json:"fileName,omitempty"`
	Name         string  `json:"name,omitempty"`
}

// Handler serves the selection control endpoint:
//
//	GET    current selection, 204 when empty
//	PUT    replace it; the file must exist in the catalog
//	DELETE clear it
func Handler(slot *Slot, store catalog.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			sel, ok := slot.Get()
			if !ok {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			writeJSON(w, http.StatusOK, toPayload(sel))

		case http.MethodPut:
			var p payload
			if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&p); err != nil {
				http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
				return
			}
			sel := Selection{FileID: p.FileID, Start: p.StartSeconds, End: p.EndSeconds}
			if err := sel.Validate(); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			sess, err := store.Session(r.Context())
			if err != nil {
				logger.Error("Selection: failed to open catalog session: %v", err)
				http.Error(w, "catalog unavailable", http.StatusInternalServerError)
				return
			}
			f, err := sess.GetFile(r.Context(), sel.FileID)
			sess.Close()
			if err != nil {
				if catalog.IsNotFound(err) {
					http.Error(w, err.Error(), http.StatusNotFound)
					return
				}
				logger.Error("Selection: failed to load file %d: %v", sel.FileID, err)
				http.Error(w, "catalog error", http.StatusInternalServerError)
				return
			}

			sel.FileName = f.OriginalFileName
			slot.Set(sel)
			logger.Info("Selection set to %s [%.3fs, %.3fs]", sel.Name(), sel.Start, sel.End)
			writeJSON(w, http.StatusOK, toPayload(sel))

		case http.MethodDelete:
			slot.Clear()
			logger.Info("Selection cleared")
			w.WriteHeader(http.StatusNoContent)

		default:
			w.Header().Set("Allow", "GET, PUT, DELETE")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		}
	})
}

func toPayload(sel Selection) payload {
	return payload{
		FileID:       sel.FileID,
		StartSeconds: sel.Start,
		EndSeconds:   sel.End,
		FileName:     sel.FileName,
		Name:         sel.Name(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("Selection: failed to write response: %v", err)
	}
}
