package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bitfantasy/nimo-feed/internal/feed/service"
	"github.com/gin-gonic/gin"
)

// ActivityHandler 活动流处理器
type ActivityHandler struct {
	svc *service.FeedService
}

// NewActivityHandler 创建活动流处理器
func NewActivityHandler(svc *service.FeedService) *ActivityHandler {
	return &ActivityHandler{svc: svc}
}

// Index 查询活动流
// GET /activities
// GET /projects/:project_id/activities
func (h *ActivityHandler) Index(c *gin.Context) {
	req, err := h.parseListRequest(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	page, err := h.svc.Index(c.Request.Context(), GetUserID(c), req)
	if err != nil {
		h.renderError(c, err)
		return
	}

	respond(c, http.StatusOK, page)
}

// Show 查询单条活动
// GET /activities/:id
// GET /projects/:project_id/activities/:id
func (h *ActivityHandler) Show(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "id must be an integer")
		return
	}

	projectKey := c.Param("project_id")
	if projectKey == "" {
		projectKey = c.Query("project_id")
	}

	detail, err := h.svc.Show(c.Request.Context(), GetUserID(c), projectKey, id)
	if err != nil {
		h.renderError(c, err)
		return
	}

	respond(c, http.StatusOK, detail)
}

// Export 导出活动流为 Excel
// GET /activities/export
func (h *ActivityHandler) Export(c *gin.Context) {
	req, err := h.parseListRequest(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	f, filename, err := h.svc.Export(c.Request.Context(), GetUserID(c), req)
	if err != nil {
		h.renderError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}

// parseListRequest 从查询参数构造查询请求
func (h *ActivityHandler) parseListRequest(c *gin.Context) (*service.ListRequest, error) {
	req := &service.ListRequest{
		ProjectKey:        c.Param("project_id"),
		TargetType:        c.Query("target_type"),
		CommentTargetType: c.Query("comment_target_type"),
	}
	if req.ProjectKey == "" {
		req.ProjectKey = c.Query("project_id")
	}

	var err error
	if req.UserID, err = queryInt64(c, "user_id"); err != nil {
		return nil, err
	}
	if req.TargetID, err = queryInt64(c, "target_id"); err != nil {
		return nil, err
	}
	if req.CommentTargetID, err = queryInt64(c, "comment_target_id"); err != nil {
		return nil, err
	}
	if req.SinceID, err = queryInt64(c, "since_id"); err != nil {
		return nil, err
	}
	if req.Count, err = queryInt(c, "count"); err != nil {
		return nil, err
	}
	return req, nil
}

func (h *ActivityHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		NotFound(c, "Not found")
	case errors.Is(err, service.ErrForbidden):
		Forbidden(c, "Insufficient permissions")
	case errors.Is(err, service.ErrInvalidCount):
		BadRequest(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}
