package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"talent-search-go/internal/search"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errorBody struct {
	Error map[string]string `json:"error"`
}

func decodeErrorBody(t *testing.T, c *app.RequestContext) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(c.Response.Body(), &body))
	return body
}

// TestHandleSearchMissingCallerIdentity 认证中间件未注入hr_id时返回401
func TestHandleSearchMissingCallerIdentity(t *testing.T) {
	h := NewSearchHandler(nil, nil, nil)
	c := app.NewContext(0)

	h.HandleSearch(context.Background(), c)

	assert.Equal(t, 401, c.Response.StatusCode())
	body := decodeErrorBody(t, c)
	assert.Equal(t, "AUTH_ERROR", body.Error["code"])
}

// TestHandleSearchMalformedJSON 非法JSON请求体返回400
func TestHandleSearchMalformedJSON(t *testing.T) {
	h := NewSearchHandler(nil, nil, nil)
	c := app.NewContext(0)
	c.Set("hr_id", "hr-1")
	c.Request.SetBody([]byte("{not-json"))

	h.HandleSearch(context.Background(), c)

	assert.Equal(t, 400, c.Response.StatusCode())
	body := decodeErrorBody(t, c)
	assert.Equal(t, "VALIDATION_ERROR", body.Error["code"])
}

// TestWriteErrorMapping 错误分类到HTTP状态码的映射
func TestWriteErrorMapping(t *testing.T) {
	h := NewSearchHandler(nil, nil, nil)

	// 校验错误: 400，带字段信息
	c := app.NewContext(0)
	h.writeError(c, search.NewValidationError("filters.skills", "技能过滤条目过多"))
	assert.Equal(t, 400, c.Response.StatusCode())
	body := decodeErrorBody(t, c)
	assert.Equal(t, "VALIDATION_ERROR", body.Error["code"])
	assert.Equal(t, "filters.skills", body.Error["field"])
	assert.Equal(t, "技能过滤条目过多", body.Error["message"])

	// 认证错误: 401
	c = app.NewContext(0)
	h.writeError(c, &search.AuthError{Message: "无效的API Key"})
	assert.Equal(t, 401, c.Response.StatusCode())
	body = decodeErrorBody(t, c)
	assert.Equal(t, "AUTH_ERROR", body.Error["code"])

	// 内部错误: 500，只回通用消息，不泄漏底层细节
	c = app.NewContext(0)
	h.writeError(c, search.NewInternalError("关键词检索失败", fmt.Errorf("dial tcp: connection refused")))
	assert.Equal(t, 500, c.Response.StatusCode())
	body = decodeErrorBody(t, c)
	assert.Equal(t, "INTERNAL_ERROR", body.Error["code"])
	assert.NotContains(t, body.Error["message"], "connection refused")
}

// TestWriteErrorWrappedValidation 包装后的校验错误仍映射为400
func TestWriteErrorWrappedValidation(t *testing.T) {
	h := NewSearchHandler(nil, nil, nil)

	c := app.NewContext(0)
	wrapped := fmt.Errorf("normalize: %w", search.NewValidationError("query", "查询文本不能为空"))
	h.writeError(c, wrapped)

	assert.Equal(t, 400, c.Response.StatusCode())
	body := decodeErrorBody(t, c)
	assert.Equal(t, "query", body.Error["field"])
}
