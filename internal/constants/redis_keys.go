package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// SearchModulePrefix 搜索模块
	SearchModulePrefix = "search"
	// SynonymModulePrefix 同义词模块
	SynonymModulePrefix = "synonym"

	// EntityResult 搜索结果实体
	EntityResult = "result"
	// EntityTerm 同义词词项实体
	EntityTerm = "term"

	// KeySearchResult 搜索结果缓存 (STRING, JSON)
	// 格式: app:search:result:{hrID}:{queryHash}
	KeySearchResult = AppPrefix + ":" + SearchModulePrefix + ":" + EntityResult + ":%s:%s"

	// KeySynonymTerm 同义词扩展缓存 (STRING, JSON)
	// 格式: app:synonym:term:{normalizedTerm}
	KeySynonymTerm = AppPrefix + ":" + SynonymModulePrefix + ":" + EntityTerm + ":%s"
)
