package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/llaa33219/plakker-web-sub000/domain"
	"github.com/llaa33219/plakker-web-sub000/pack"
	"github.com/llaa33219/plakker-web-sub000/store"
)

// parts above this size are spooled to disk while parsing
const multipartMemory = 32 << 20

type errorResponse struct {
	Error          string             `json:"error"`
	ValidationInfo *domain.Validation `json:"validationInfo,omitempty"`
}

type quotaErrorResponse struct {
	Error        string `json:"error"`
	CurrentCount int    `json:"currentCount"`
	Limit        int    `json:"limit"`
	Remaining    int    `json:"remaining"`
}

type uploadResponse struct {
	Success        bool              `json:"success"`
	Id             string            `json:"id"`
	Message        string            `json:"message"`
	ValidationInfo domain.Validation `json:"validationInfo"`
}

type searchResponse struct {
	Packs []domain.Pack `json:"packs"`
}

func (g *gateway) uploadHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, g.config.MaxRequestBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErr(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request is too large, the limit is %s", humanize.IBytes(uint64(tooLarge.Limit))))
			return
		}
		writeErr(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	sub := pack.Submission{
		ClientId:    r.RemoteAddr,
		Title:       bodyValue(r.MultipartForm, "title"),
		Creator:     bodyValue(r.MultipartForm, "creator"),
		CreatorLink: bodyValue(r.MultipartForm, "creatorLink"),
	}
	var err error
	if headers := r.MultipartForm.File["thumbnail"]; len(headers) > 0 {
		if sub.Thumbnail, err = readPart(headers[0]); err != nil {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	for _, header := range r.MultipartForm.File["emoticons"] {
		file, err := readPart(header)
		if err != nil {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
		sub.Images = append(sub.Images, file)
	}

	res, err := g.pack.Submit(r.Context(), sub)
	if err != nil {
		writeSubmitErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		Success:        true,
		Id:             res.Pack.Id,
		Message:        res.Message,
		ValidationInfo: res.Pack.Validation,
	})
}

// bodyValue reads a field of the multipart body, query parameters never count
func bodyValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func readPart(header *multipart.FileHeader) (file pack.File, err error) {
	f, err := header.Open()
	if err != nil {
		return file, fmt.Errorf("can't read %s", header.Filename)
	}
	defer f.Close()
	if file.Data, err = io.ReadAll(f); err != nil {
		return file, fmt.Errorf("can't read %s", header.Filename)
	}
	file.FileName = header.Filename
	file.MediaType = header.Header.Get("Content-Type")
	return file, nil
}

func writeSubmitErr(w http.ResponseWriter, err error) {
	var (
		admissionErr  *pack.AdmissionError
		validationErr *pack.ValidationError
	)
	switch {
	case errors.As(err, &admissionErr):
		writeJSON(w, http.StatusTooManyRequests, quotaErrorResponse{
			Error:        admissionErr.Error(),
			CurrentCount: admissionErr.Admission.CurrentCount,
			Limit:        admissionErr.Admission.Limit,
			Remaining:    admissionErr.Admission.Remaining,
		})
	case errors.Is(err, pack.ErrNotConfigured):
		writeErr(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationErr.Message, ValidationInfo: validationErr.Validation})
	default:
		log.Error("upload failed", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, "Upload failed: "+err.Error())
	}
}

func (g *gateway) uploadLimitHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, g.pack.UploadLimit(r.Context(), r.RemoteAddr))
}

func (g *gateway) searchHandler(w http.ResponseWriter, r *http.Request) {
	packs, err := g.pack.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		log.Error("search failed", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Packs: packs})
}

func (g *gateway) packHandler(w http.ResponseWriter, r *http.Request) {
	p, err := g.pack.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, pack.ErrNotFound) {
			writeErr(w, http.StatusNotFound, err.Error())
			return
		}
		log.Error("get pack failed", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (g *gateway) imageHandler(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if !strings.HasPrefix(key, store.ThumbnailPrefix) && !strings.HasPrefix(key, store.ImagePrefix) {
		http.NotFound(w, r)
		return
	}
	reader, err := g.store.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Error("get image failed", zap.String("key", key), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", mimetype.Detect(data).String())
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	_, _ = w.Write(data)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("can't write response", zap.Error(err))
	}
}
