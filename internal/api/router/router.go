package router

import (
	"context"

	"talent-search-go/internal/api/handler"
	"talent-search-go/internal/config"
	"talent-search-go/pkg/ratelimit"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
)

// RegisterRoutes 注册 API 路由
// 搜索路由先过API Key认证解析出hr_id，再过按调用方的令牌桶限流。
func RegisterRoutes(h *server.Hertz, searchHandler *handler.SearchHandler, cfg *config.Config) {
	api := h.Group("/api/v1")

	// 健康检查不需要认证
	api.GET("/health", searchHandler.HandleHealth)

	authMiddleware := keyauth.New(
		keyauth.WithKeyLookUp("header:X-API-Key", ""),
		keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
			hrID, ok := cfg.Server.APIKeys[key]
			if !ok || hrID == "" {
				return false, nil
			}
			// 供下游handler读取调用方身份
			c.Set("hr_id", hrID)
			return true, nil
		}),
		keyauth.WithErrorHandler(func(ctx context.Context, c *app.RequestContext, err error) {
			c.JSON(consts.StatusUnauthorized, map[string]interface{}{
				"error": map[string]string{"code": "AUTH_ERROR", "message": "API Key缺失或无效"},
			})
			c.Abort()
		}),
	)

	limiter := ratelimit.NewPerCallerLimiter(cfg.Server.SearchQPM)
	rateLimitMiddleware := func(ctx context.Context, c *app.RequestContext) {
		hrIDValue, _ := c.Get("hr_id")
		hrID, _ := hrIDValue.(string)
		if !limiter.Allow(hrID) {
			c.JSON(consts.StatusTooManyRequests, map[string]interface{}{
				"error": map[string]string{"code": "RATE_LIMITED", "message": "请求超过限额，请稍后重试"},
			})
			c.Abort()
			return
		}
		c.Next(ctx)
	}

	api.POST("/search", authMiddleware, rateLimitMiddleware, searchHandler.HandleSearch)
}
