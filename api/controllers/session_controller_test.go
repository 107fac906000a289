package controllers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/batchupload/session"
	"github.com/moyoez/batchupload/transfer"
	"github.com/moyoez/batchupload/types"
)

type instantUploader struct{}

func (instantUploader) Upload(token *transfer.Token, file transfer.File) transfer.Result {
	return transfer.Result{Outcome: transfer.Success, Message: "Success", StatusCode: http.StatusOK}
}

// setupSessionRouter creates a test router with the session endpoints
func setupSessionRouter(sess *session.Session) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	ctrl := NewSessionController(sess)

	self := router.Group("/api/self/v1")
	{
		self.GET("/session", ctrl.HandleGet)
		self.POST("/session/files", ctrl.HandleAddFiles)
		self.DELETE("/session/files/:index", ctrl.HandleRemoveFile)
		self.POST("/session/start", ctrl.HandleStart)
		self.POST("/session/cancel", ctrl.HandleCancel)
		self.POST("/session/retry", ctrl.HandleRetry)
		self.POST("/session/close", ctrl.HandleClose)
	}
	return router
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		data, _ := sonic.Marshal(body)
		buf.Write(data)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) types.SessionSnapshot {
	t.Helper()
	var resp struct {
		Data types.SessionSnapshot `json:"data"`
	}
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

func decodeSnapshotOf(t *testing.T, router *gin.Engine) types.SessionSnapshot {
	t.Helper()
	return decodeSnapshot(t, doJSON(router, http.MethodGet, "/api/self/v1/session", nil))
}

func TestSessionAddStartFlow(t *testing.T) {
	sess := session.New(instantUploader{})
	router := setupSessionRouter(sess)
	a := writeTempFile(t, "a.txt", "alpha")
	b := writeTempFile(t, "b.txt", "beta")

	w := doJSON(router, http.MethodPost, "/api/self/v1/session/files", types.SessionAddFilesRequest{
		FileUrls: []string{"file://" + a, b},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snap := decodeSnapshot(t, w)
	assert.Equal(t, "idle", snap.State)
	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, "a.txt", snap.Files[0].FileName)
	assert.Equal(t, int64(5), snap.Files[0].Size)

	w = doJSON(router, http.MethodPost, "/api/self/v1/session/start", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	require.NoError(t, sess.Wait())

	w = doJSON(router, http.MethodGet, "/api/self/v1/session", nil)
	snap = decodeSnapshot(t, w)
	assert.Equal(t, "completed", snap.State)
	assert.Equal(t, 2, snap.Completed)
	assert.Equal(t, 1.0, snap.Progress)

	w = doJSON(router, http.MethodPost, "/api/self/v1/session/files", types.SessionAddFilesRequest{FileUrls: []string{a}})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(router, http.MethodPost, "/api/self/v1/session/close", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "idle", decodeSnapshot(t, w).State)
}

func TestSessionAddFilesRejectsBadInput(t *testing.T) {
	router := setupSessionRouter(session.New(instantUploader{}))

	w := doJSON(router, http.MethodPost, "/api/self/v1/session/files", types.SessionAddFilesRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/self/v1/session/files", types.SessionAddFilesRequest{
		FileUrls: []string{"https://example.com/a.txt"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/self/v1/session/files", types.SessionAddFilesRequest{
		FileUrls: []string{"file:///definitely/not/here.txt"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionRemoveFile(t *testing.T) {
	sess := session.New(instantUploader{})
	router := setupSessionRouter(sess)
	require.NoError(t, sess.Add(transfer.FileFromBytes("a.txt", []byte("a")), transfer.FileFromBytes("b.txt", []byte("b"))))

	w := doJSON(router, http.MethodDelete, "/api/self/v1/session/files/0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decodeSnapshot(t, w)
	require.Len(t, snap.Files, 1)
	assert.Equal(t, "b.txt", snap.Files[0].FileName)

	w = doJSON(router, http.MethodDelete, "/api/self/v1/session/files/5", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, decodeSnapshotOf(t, router).Files, 1)

	w = doJSON(router, http.MethodDelete, "/api/self/v1/session/files/x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionStartAndRetryErrors(t *testing.T) {
	router := setupSessionRouter(session.New(instantUploader{}))

	w := doJSON(router, http.MethodPost, "/api/self/v1/session/start", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/self/v1/session/retry", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(router, http.MethodPost, "/api/self/v1/session/cancel", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
