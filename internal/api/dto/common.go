package dto

// Response 通用返回体
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// PageResult 游标分页通用返回
type PageResult[T any] struct {
	List       []T    `json:"list"`
	NextCursor string `json:"nextCursor"`
	HasMore    bool   `json:"hasMore"`
}
