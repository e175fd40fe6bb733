package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"talent-search-go/internal/config"
	"talent-search-go/internal/tracing"
	"talent-search-go/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// 定义Qdrant的专用tracer
var qdrantTracer = otel.Tracer("talent-search-go/storage/qdrant")

// VectorHit 表示一个向量召回结果项
type VectorHit struct {
	ID      string                 // 向量点ID
	Score   float32                // 相似度分数
	Payload map[string]interface{} // 载荷数据
}

// Qdrant 提供向量数据库功能
// 候选人简历按分块写入，payload中携带candidate_id与结构化过滤字段。
type Qdrant struct {
	endpoint       string
	collectionName string
	vectorSize     int
	distanceMetric string
	apiKey         string
	httpClient     *http.Client
}

// QdrantOption 定义Qdrant构造函数选项
type QdrantOption func(*Qdrant)

// WithDistanceMetric 设置距离度量
func WithDistanceMetric(metric string) QdrantOption {
	return func(q *Qdrant) {
		q.distanceMetric = metric
	}
}

// WithHttpTimeout 设置HTTP客户端超时
func WithHttpTimeout(timeout time.Duration) QdrantOption {
	return func(q *Qdrant) {
		q.httpClient = &http.Client{Timeout: timeout}
	}
}

// NewQdrant 创建Qdrant客户端
func NewQdrant(cfg *config.QdrantConfig, opts ...QdrantOption) (*Qdrant, error) {
	if cfg == nil {
		return nil, fmt.Errorf("qdrant配置不能为空")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:6333"
	}

	collectionName := cfg.Collection
	if collectionName == "" {
		collectionName = "candidate_profiles"
	}

	vectorSize := cfg.Dimension
	if vectorSize <= 0 {
		vectorSize = 1024 // 与阿里云Embedding默认维度一致
	}

	q := &Qdrant{
		endpoint:       endpoint,
		collectionName: collectionName,
		vectorSize:     vectorSize,
		distanceMetric: "Cosine",
		apiKey:         cfg.APIKey,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(q)
	}

	if err := q.ensureCollectionExists(context.Background()); err != nil {
		return nil, fmt.Errorf("确保集合 '%s' 存在失败: %w", collectionName, err)
	}

	log.Printf("成功连接到Qdrant服务器: %s，并确保集合 '%s' 存在", endpoint, collectionName)
	return q, nil
}

// ensureCollectionExists 确保向量集合存在
func (q *Qdrant) ensureCollectionExists(ctx context.Context) error {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.EnsureCollectionExists",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("net.peer.name", q.endpoint),
		attribute.String("db.system", "qdrant"),
		attribute.String("db.operation", "check_collection"),
		attribute.String("db.collection", q.collectionName),
		attribute.Int("db.vector_size", q.vectorSize),
	)

	url := fmt.Sprintf("%s/collections/%s", q.endpoint, q.collectionName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("创建检查集合请求失败: %w", err)
	}
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := q.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("发送检查集合请求失败: %w", err)
	}
	defer resp.Body.Close()

	// 集合不存在则创建
	if resp.StatusCode == http.StatusNotFound {
		span.AddEvent("collection_not_found", trace.WithAttributes(
			attribute.String("action", "create_collection"),
		))
		log.Printf("集合 '%s' 不存在，将创建新集合", q.collectionName)
		return q.createCollection(ctx)
	} else if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("检查集合失败，状态码: %d, 响应: %s", resp.StatusCode, string(body))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// createCollection 创建向量集合
func (q *Qdrant) createCollection(ctx context.Context) error {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.CreateCollection",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "qdrant"),
		attribute.String("db.operation", "create_collection"),
		attribute.String("db.collection", q.collectionName),
		attribute.Int("db.vector_size", q.vectorSize),
		attribute.String("db.distance_metric", q.distanceMetric),
	)

	reqBody := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     q.vectorSize,
			"distance": q.distanceMetric,
		},
	}

	var result struct {
		Result bool    `json:"result"`
		Status string  `json:"status"`
		Time   float64 `json:"time"`
	}

	err := q.doRequest(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", q.collectionName), reqBody, &result)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("创建集合失败: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// buildFilter 将结构化过滤条件转换为Qdrant filter子句
// skillGroup 为并行分组检索时该槽位的技能集合，条目间OR语义。
func buildFilter(f *types.SearchFilters, skillGroup []string) map[string]interface{} {
	var must []map[string]interface{}
	var mustNot []map[string]interface{}

	if len(skillGroup) > 0 {
		must = append(must, map[string]interface{}{
			"key":   "skills",
			"match": map[string]interface{}{"any": skillGroup},
		})
	}

	if f != nil {
		if f.Location != "" {
			must = append(must, map[string]interface{}{
				"key":   "location",
				"match": map[string]interface{}{"text": f.Location},
			})
		}
		if f.EducationLevel != "" {
			must = append(must, map[string]interface{}{
				"key":   "education_level",
				"match": map[string]interface{}{"value": f.EducationLevel},
			})
		}
		if len(f.Companies) > 0 {
			must = append(must, map[string]interface{}{
				"key":   "company",
				"match": map[string]interface{}{"any": f.Companies},
			})
		}
		if len(f.ExcludeCompanies) > 0 {
			mustNot = append(mustNot, map[string]interface{}{
				"key":   "company",
				"match": map[string]interface{}{"any": f.ExcludeCompanies},
			})
		}
		if f.ExpYearsMin != nil || f.ExpYearsMax != nil {
			rangeClause := map[string]interface{}{}
			if f.ExpYearsMin != nil {
				rangeClause["gte"] = *f.ExpYearsMin
			}
			if f.ExpYearsMax != nil {
				rangeClause["lte"] = *f.ExpYearsMax
			}
			must = append(must, map[string]interface{}{
				"key":   "years_of_exp",
				"range": rangeClause,
			})
		}
	}

	if len(must) == 0 && len(mustNot) == 0 {
		return nil
	}
	filter := map[string]interface{}{}
	if len(must) > 0 {
		filter["must"] = must
	}
	if len(mustNot) > 0 {
		filter["must_not"] = mustNot
	}
	return filter
}

// SearchCandidates 在Qdrant中搜索与查询向量相似的候选人分块
// skillGroup为本次召回限定的技能集合（可为nil），集合内OR语义。
func (q *Qdrant) SearchCandidates(ctx context.Context, queryVector []float32, limit int, filter *types.SearchFilters, skillGroup []string) ([]VectorHit, error) {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.SearchCandidates",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "qdrant"),
		attribute.String("db.operation", "search_vectors"),
		attribute.String("db.collection", q.collectionName),
		attribute.Int("search.limit", limit),
		attribute.Int("query_vector.size", len(queryVector)),
	)

	if len(queryVector) != q.vectorSize {
		err := fmt.Errorf("查询向量维度(%d)与配置维度(%d)不匹配", len(queryVector), q.vectorSize)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if limit <= 0 {
		limit = 10
	}

	searchReq := map[string]interface{}{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
	}
	if f := buildFilter(filter, skillGroup); f != nil {
		searchReq["filter"] = f
	}

	var result struct {
		Result []struct {
			ID      string                 `json:"id"`
			Score   float32                `json:"score"`
			Payload map[string]interface{} `json:"payload"`
		} `json:"result"`
		Status string  `json:"status"`
		Time   float64 `json:"time"`
	}

	err := q.doRequest(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", q.collectionName), searchReq, &result)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	hits := make([]VectorHit, 0, len(result.Result))
	for _, point := range result.Result {
		hits = append(hits, VectorHit{
			ID:      point.ID,
			Score:   point.Score,
			Payload: point.Payload,
		})
	}

	span.SetAttributes(
		attribute.Int("search.results.count", len(hits)),
		attribute.String("qdrant.response_status", result.Status),
		attribute.Float64("qdrant.response_time", result.Time),
	)

	span.SetStatus(codes.Ok, "")
	return hits, nil
}

// SearchCandidateGroups 按技能分组发起批量向量召回
// 请求固定5个分组槽位，nil槽位不占用批量条目；返回值与槽位一一对应，
// nil槽位对应的结果为nil。
func (q *Qdrant) SearchCandidateGroups(ctx context.Context, req *types.GroupSearchRequest) ([5][]VectorHit, error) {
	var grouped [5][]VectorHit

	ctx, span := qdrantTracer.Start(ctx, "Qdrant.SearchCandidateGroups",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "qdrant"),
		attribute.String("db.operation", "search_vectors_batch"),
		attribute.String("db.collection", q.collectionName),
		attribute.Int("search.limit", req.Limit),
		attribute.Int("query_vector.size", len(req.Vector)),
	)

	if len(req.Vector) != q.vectorSize {
		err := fmt.Errorf("查询向量维度(%d)与配置维度(%d)不匹配", len(req.Vector), q.vectorSize)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return grouped, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	// 记录每个批量条目对应的槽位索引
	var slotIndex []int
	var searches []map[string]interface{}
	for i, group := range req.Groups {
		if group == nil {
			continue
		}
		entry := map[string]interface{}{
			"vector":       req.Vector,
			"limit":        limit,
			"with_payload": true,
		}
		if f := buildFilter(req.Filter, group); f != nil {
			entry["filter"] = f
		}
		searches = append(searches, entry)
		slotIndex = append(slotIndex, i)
	}

	span.SetAttributes(attribute.Int("search.group_count", len(searches)))

	if len(searches) == 0 {
		span.SetStatus(codes.Ok, "no groups to search")
		return grouped, nil
	}

	batchReq := map[string]interface{}{"searches": searches}

	var result struct {
		Result [][]struct {
			ID      string                 `json:"id"`
			Score   float32                `json:"score"`
			Payload map[string]interface{} `json:"payload"`
		} `json:"result"`
		Status string  `json:"status"`
		Time   float64 `json:"time"`
	}

	err := q.doRequest(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search/batch", q.collectionName), batchReq, &result)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return grouped, err
	}

	if len(result.Result) != len(searches) {
		err := fmt.Errorf("批量搜索结果数量(%d)与请求条目(%d)不一致", len(result.Result), len(searches))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return grouped, err
	}

	for j, points := range result.Result {
		hits := make([]VectorHit, 0, len(points))
		for _, point := range points {
			hits = append(hits, VectorHit{
				ID:      point.ID,
				Score:   point.Score,
				Payload: point.Payload,
			})
		}
		grouped[slotIndex[j]] = hits
	}

	span.SetAttributes(
		attribute.String("qdrant.response_status", result.Status),
		attribute.Float64("qdrant.response_time", result.Time),
	)

	span.SetStatus(codes.Ok, "")
	return grouped, nil
}

// CountPoints 统计集合中的向量点总数
func (q *Qdrant) CountPoints(ctx context.Context) (int64, error) {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.CountPoints",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "qdrant"),
		attribute.String("db.operation", "count_points"),
		attribute.String("db.collection", q.collectionName),
	)

	countReqBody := map[string]interface{}{"exact": true}

	var result struct {
		Result struct {
			Count int64 `json:"count"`
		} `json:"result"`
		Status string  `json:"status"`
		Time   float64 `json:"time"`
	}

	err := q.doRequest(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/count", q.collectionName), countReqBody, &result)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	span.SetAttributes(attribute.Int64("points.count", result.Result.Count))
	span.SetStatus(codes.Ok, "")
	return result.Result.Count, nil
}

// doRequest 执行Qdrant REST调用，处理追踪注入与错误分类
func (q *Qdrant) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	ctx, span := qdrantTracer.Start(ctx, fmt.Sprintf("%s %s", method, path),
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("net.peer.name", q.endpoint),
		attribute.String("db.system", "qdrant"),
		attribute.String("db.operation", path),
	)

	baseURL := q.endpoint

	var req *http.Request
	var err error

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
			return err
		}

		req, err = http.NewRequestWithContext(ctx, method, baseURL+path, bytes.NewBuffer(jsonBody))
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		span.SetAttributes(attribute.Int("http.request.body.size", len(jsonBody)))
	} else {
		req, err = http.NewRequestWithContext(ctx, method, baseURL+path, nil)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
			return err
		}
	}

	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	// 注入trace context
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := q.httpClient.Do(req)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeHTTP)
		return err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeHTTP)
		return err
	}

	span.SetAttributes(attribute.Int("http.response.body.size", len(respBody)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = fmt.Errorf("qdrant API error: status=%d, body=%s", resp.StatusCode, string(respBody))
		tracing.RecordHTTPError(span, err, resp.StatusCode)
		return err
	}

	if result != nil && len(respBody) > 0 {
		if err = json.Unmarshal(respBody, result); err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
			return err
		}
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
