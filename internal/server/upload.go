package server

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/raggify/raggify-go/internal/logging"
)

// maxUploadBytes bounds a single POST /upload request body.
const maxUploadBytes = 256 << 20 // 256 MiB

// handleUpload handles POST /upload (multipart `files[]`), saving each part
// under cfg.UploadDir and returning the saved path for every file (spec
// §6). 400 on a missing filename, 500 on an IO failure.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSONError(w, r, http.StatusBadRequest, "invalid multipart body: "+err.Error())
		return
	}

	parts := r.MultipartForm.File["files"]
	if len(parts) == 0 {
		writeJSONError(w, r, http.StatusBadRequest, "no files provided under field \"files\"")
		return
	}

	uploadDir := s.cfg.UploadDir
	if uploadDir == "" {
		uploadDir = os.TempDir()
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		writeJSONError(w, r, http.StatusInternalServerError, "create upload dir: "+err.Error())
		return
	}

	resp := uploadResponse{Files: make([]uploadedFile, 0, len(parts))}
	for _, fh := range parts {
		if fh.Filename == "" {
			writeJSONError(w, r, http.StatusBadRequest, "uploaded file has an empty filename")
			return
		}

		savePath := filepath.Join(uploadDir, filepath.Base(fh.Filename))
		if err := saveUploadedFile(fh, savePath); err != nil {
			log.Error("upload: save failed", slog.String("filename", fh.Filename), slog.Any("error", err))
			writeJSONError(w, r, http.StatusInternalServerError, fmt.Sprintf("save %q: %v", fh.Filename, err))
			return
		}

		contentType := fh.Header.Get("Content-Type")
		resp.Files = append(resp.Files, uploadedFile{
			Filename: fh.Filename, ContentType: contentType, SavePath: savePath,
		})
	}

	writeJSON(w, r, http.StatusOK, resp)
}

func saveUploadedFile(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}
