// internal/httpserver/handlers.go
package httpserver

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"quote-intake/internal/common/errors"
	"quote-intake/internal/models"
	"quote-intake/internal/wizard"

	"github.com/gin-gonic/gin"
)

// multipartOverhead is the room left for boundaries and part headers on top
// of the file size limit.
const multipartOverhead = 64 << 10

type quoteHandlers struct {
	sessions     *wizard.Registry
	suggester    wizard.Suggester
	maxFileBytes int
	fail         func(c *gin.Context, err error)
}

type navAction func(*wizard.Controller) (wizard.Snapshot, error)

var (
	navNext      navAction = (*wizard.Controller).Next
	navBack      navAction = (*wizard.Controller).Back
	navSubmit    navAction = (*wizard.Controller).Submit
	navStartOver navAction = (*wizard.Controller).StartOver
	navRetry     navAction = (*wizard.Controller).RetrySubmission
)

type selectRequest struct {
	Index *int `json:"index" binding:"required"`
}

func (h *quoteHandlers) session(c *gin.Context) (*wizard.Controller, bool) {
	ctrl, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return ctrl, true
}

func (h *quoteHandlers) reply(c *gin.Context, snap wizard.Snapshot, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, snap)
}

func (h *quoteHandlers) createSession(c *gin.Context) {
	ctrl := h.sessions.Create()
	respond(c, http.StatusCreated, ctrl.Snapshot())
}

func (h *quoteHandlers) getSession(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, ctrl.Snapshot())
}

func (h *quoteHandlers) updateDraft(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	var patch models.DraftPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.fail(c, errors.NewInvalidRequestError(err.Error()))
		return
	}
	snap, err := ctrl.UpdateDraft(patch)
	h.reply(c, snap, err)
}

func (h *quoteHandlers) attachFile(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	if h.maxFileBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(h.maxFileBytes)+multipartOverhead)
	}
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			h.fail(c, errors.NewInvalidRequestError(
				fmt.Sprintf("upload exceeds the %d byte limit", h.maxFileBytes)))
			return
		}
		h.fail(c, errors.NewInvalidRequestError("multipart field \"file\" is required"))
		return
	}
	if h.maxFileBytes > 0 && header.Size > int64(h.maxFileBytes) {
		h.fail(c, errors.NewInvalidRequestError(
			fmt.Sprintf("%s exceeds the %d byte limit", header.Filename, h.maxFileBytes)))
		return
	}

	f, err := header.Open()
	if err != nil {
		h.fail(c, errors.NewInvalidRequestError(err.Error()))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		h.fail(c, errors.NewInvalidRequestError(err.Error()))
		return
	}

	snap, err := ctrl.AttachFile(models.LocalFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	h.reply(c, snap, err)
}

func (h *quoteHandlers) removeFile(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.fail(c, errors.NewInvalidRequestError("file index must be a number"))
		return
	}
	snap, err := ctrl.RemoveFile(index)
	h.reply(c, snap, err)
}

func (h *quoteHandlers) selectSuggestion(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errors.NewInvalidRequestError(err.Error()))
		return
	}
	snap, err := ctrl.SelectSuggestion(*req.Index)
	h.reply(c, snap, err)
}

func (h *quoteHandlers) navigate(action navAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctrl, ok := h.session(c)
		if !ok {
			return
		}
		snap, err := action(ctrl)
		h.reply(c, snap, err)
	}
}

func (h *quoteHandlers) suggestions(c *gin.Context) {
	results := h.suggester.FetchSuggestions(c.Request.Context(), c.Query("q"))
	if results == nil {
		results = []models.AddressSuggestion{}
	}
	respond(c, http.StatusOK, results)
}
