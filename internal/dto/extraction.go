package dto

// ExtractionForm 识别请求的表单字段（图片通过 file 字段上传）
type ExtractionForm struct {
	APIKey  string `form:"api_key" binding:"omitempty,max=200"`
	BaseURL string `form:"base_url" binding:"omitempty,url"`
}
