package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUploadTestServer(t *testing.T, uploadDir string) *Server {
	t.Helper()
	return &Server{cfg: &Config{UploadDir: uploadDir}}
}

func multipartUploadRequest(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/upload", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandleUpload_SavesFileUnderUploadDir(t *testing.T) {
	dir := t.TempDir()
	s := newUploadTestServer(t, dir)

	req := multipartUploadRequest(t, "files", "notes.txt", "hello world")
	w := httptest.NewRecorder()
	s.handleUpload(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Files, 1)
	assert.Equal(t, "notes.txt", resp.Files[0].Filename)
	assert.Equal(t, filepath.Join(dir, "notes.txt"), resp.Files[0].SavePath)

	saved, err := os.ReadFile(resp.Files[0].SavePath)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(saved))
}

func TestHandleUpload_NoFilesIs400(t *testing.T) {
	s := newUploadTestServer(t, t.TempDir())

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/upload", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.handleUpload(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleUpload_WrongFieldNameIs400(t *testing.T) {
	s := newUploadTestServer(t, t.TempDir())

	req := multipartUploadRequest(t, "attachments", "notes.txt", "hello world")
	w := httptest.NewRecorder()
	s.handleUpload(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleUpload_DefaultsToOSTempDirWhenUnset(t *testing.T) {
	s := newUploadTestServer(t, "")

	req := multipartUploadRequest(t, "files", "defaulted.txt", "x")
	w := httptest.NewRecorder()
	s.handleUpload(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Files, 1)
	defer os.Remove(resp.Files[0].SavePath)
	assert.Equal(t, filepath.Join(os.TempDir(), "defaulted.txt"), resp.Files[0].SavePath)
}
