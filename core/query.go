package core

// Query 承载一次推荐请求的上下文，贯穿整个 Pipeline 透传。
type Query struct {
	// AnchorID 是锚点商品 ID（"看了这个，还可能看什么"的"这个"）
	AnchorID string

	// UserID 为空表示非个性化请求：协同过滤分与偏好分按 0 处理
	UserID string

	// K 是期望返回的推荐数量
	K int

	// Params 请求级上下文参数，供自定义 Node / 过滤表达式使用
	Params map[string]any
}

// Personalized 返回请求是否带用户身份。
func (q *Query) Personalized() bool {
	return q != nil && q.UserID != ""
}
