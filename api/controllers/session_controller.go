package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/batchupload/session"
	"github.com/moyoez/batchupload/tool"
	"github.com/moyoez/batchupload/transfer"
	"github.com/moyoez/batchupload/types"
)

// SessionController exposes the upload session to the presentation layer.
type SessionController struct {
	sess *session.Session
}

func NewSessionController(sess *session.Session) *SessionController {
	return &SessionController{sess: sess}
}

// HandleGet
// GET /api/self/v1/session
func (ctrl *SessionController) HandleGet(c *gin.Context) {
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(ctrl.sess.Snapshot().Response()))
}

// HandleAddFiles adds local files by file:// url.
// POST /api/self/v1/session/files
func (ctrl *SessionController) HandleAddFiles(c *gin.Context) {
	var request types.SessionAddFilesRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
		return
	}
	if len(request.FileUrls) == 0 {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("fileUrls must not be empty"))
		return
	}
	files := make([]transfer.File, 0, len(request.FileUrls))
	for _, fileUrl := range request.FileUrls {
		path, err := tool.PathFromFileURL(fileUrl)
		if err != nil {
			c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
			return
		}
		file, err := transfer.FileFromPath(path)
		if err != nil {
			c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
			return
		}
		files = append(files, file)
	}
	if err := ctrl.sess.Add(files...); err != nil {
		c.JSON(sessionErrorStatus(err), tool.FastReturnError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(ctrl.sess.Snapshot().Response()))
}

// HandleRemoveFile
// DELETE /api/self/v1/session/files/:index
func (ctrl *SessionController) HandleRemoveFile(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("index must be an integer"))
		return
	}
	if err := ctrl.sess.Remove(index); err != nil {
		c.JSON(sessionErrorStatus(err), tool.FastReturnError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(ctrl.sess.Snapshot().Response()))
}

// HandleStart
// POST /api/self/v1/session/start
func (ctrl *SessionController) HandleStart(c *gin.Context) {
	if err := ctrl.sess.Start(); err != nil {
		c.JSON(sessionErrorStatus(err), tool.FastReturnError(err.Error()))
		return
	}
	c.JSON(http.StatusAccepted, tool.FastReturnSuccessWithData(ctrl.sess.Snapshot().Response()))
}

// HandleRetry
// POST /api/self/v1/session/retry
func (ctrl *SessionController) HandleRetry(c *gin.Context) {
	if err := ctrl.sess.Retry(); err != nil {
		c.JSON(sessionErrorStatus(err), tool.FastReturnError(err.Error()))
		return
	}
	c.JSON(http.StatusAccepted, tool.FastReturnSuccessWithData(ctrl.sess.Snapshot().Response()))
}

// HandleCancel
// POST /api/self/v1/session/cancel
func (ctrl *SessionController) HandleCancel(c *gin.Context) {
	ctrl.sess.Cancel()
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

// HandleClose cancels any upload in flight and resets the batch.
// POST /api/self/v1/session/close
func (ctrl *SessionController) HandleClose(c *gin.Context) {
	ctrl.sess.Close()
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(ctrl.sess.Snapshot().Response()))
}

func sessionErrorStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrEmptyBatch), errors.Is(err, session.ErrIndexOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrNotIdle), errors.Is(err, session.ErrNotFailed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
