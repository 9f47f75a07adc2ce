package upload

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/Zhouyi071021/campus-circle/internal/apperr"
	"github.com/Zhouyi071021/campus-circle/internal/httpx"
	"github.com/Zhouyi071021/campus-circle/internal/logging"
)

// Putter stores an object and returns where it can be fetched.
type Putter interface {
	Put(ctx context.Context, obj Object) (string, error)
}

type Handler struct {
	store    Putter
	maxBytes int64
	log      logging.Logger
}

func NewHandler(store Putter, maxBytes int64, log logging.Logger) *Handler {
	return &Handler{store: store, maxBytes: maxBytes, log: log.With("module", "upload")}
}

// Upload accepts a multipart form with a single "file" field.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	// Leave room for the multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<20)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			httpx.Error(w, apperr.ErrFileTooLarge)
			return
		}
		httpx.Error(w, apperr.ErrNoFile)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Error(w, apperr.ErrNoFile)
		return
	}
	defer file.Close()

	if header.Size > h.maxBytes {
		httpx.Error(w, apperr.ErrFileTooLarge)
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		httpx.Error(w, apperr.Internal(err))
		return
	}

	url, err := h.store.Put(r.Context(), Object{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		h.log.Error(r.Context(), "upload failed", "file", header.Filename, "error", err)
		httpx.Error(w, apperr.Internal(err))
		return
	}
	httpx.Fields(w, map[string]any{"url": url})
}
