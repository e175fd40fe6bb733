package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"talent-search-go/internal/config"
	applogger "talent-search-go/internal/logger"
	"talent-search-go/internal/search"
	"talent-search-go/internal/storage"
	"talent-search-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// SearchHandler 负责处理候选人搜索请求。
type SearchHandler struct {
	cfg     *config.Config
	service *search.Service
	storage *storage.Storage
	logger  *log.Logger
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(cfg *config.Config, service *search.Service, storage *storage.Storage) *SearchHandler {
	return &SearchHandler{
		cfg:     cfg,
		service: service,
		storage: storage,
		logger:  log.New(applogger.Logger, "[SearchHandler] ", log.LstdFlags|log.Lshortfile),
	}
}

// HandleSearch 处理候选人搜索请求。
// POST /api/v1/search
func (h *SearchHandler) HandleSearch(ctx context.Context, c *app.RequestContext) {
	// 从认证中间件获取 hr_id
	hrIDValue, exists := c.Get("hr_id")
	hrID, _ := hrIDValue.(string)
	if !exists || hrID == "" {
		c.JSON(consts.StatusUnauthorized, map[string]interface{}{
			"error": map[string]string{"code": "AUTH_ERROR", "message": "缺少调用方身份"},
		})
		return
	}

	var req types.SearchRequest
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil {
		c.JSON(consts.StatusBadRequest, map[string]interface{}{
			"error": map[string]string{"code": "VALIDATION_ERROR", "message": "请求体不是合法的JSON"},
		})
		return
	}

	resp, err := h.service.Search(ctx, hrID, &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(consts.StatusOK, resp)
}

// writeError 按错误分类映射HTTP状态码
// 校验错误带字段信息返回给调用方；内部错误只回通用消息，细节进日志。
func (h *SearchHandler) writeError(c *app.RequestContext, err error) {
	var validationErr *search.ValidationError
	var authErr *search.AuthError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(consts.StatusBadRequest, map[string]interface{}{
			"error": map[string]string{
				"code":    "VALIDATION_ERROR",
				"field":   validationErr.Field,
				"message": validationErr.Message,
			},
		})
	case errors.As(err, &authErr):
		c.JSON(consts.StatusUnauthorized, map[string]interface{}{
			"error": map[string]string{"code": "AUTH_ERROR", "message": authErr.Message},
		})
	default:
		h.logger.Printf("搜索管线内部错误: %v", err)
		c.JSON(consts.StatusInternalServerError, map[string]interface{}{
			"error": map[string]string{"code": "INTERNAL_ERROR", "message": "搜索服务内部错误"},
		})
	}
}

// HandleHealth 健康检查，带存储探活。
// GET /api/v1/health
func (h *SearchHandler) HandleHealth(ctx context.Context, c *app.RequestContext) {
	status := map[string]string{"status": "ok"}

	if h.storage != nil && h.storage.Redis != nil {
		if err := h.storage.Redis.Ping(ctx); err != nil {
			status["redis"] = "down"
			status["status"] = "degraded"
		} else {
			status["redis"] = "ok"
		}
	}

	if h.storage != nil && h.storage.Qdrant != nil {
		if _, err := h.storage.Qdrant.CountPoints(ctx); err != nil {
			status["qdrant"] = "down"
			status["status"] = "degraded"
		} else {
			status["qdrant"] = "ok"
		}
	}

	c.JSON(consts.StatusOK, status)
}
