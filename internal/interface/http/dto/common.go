// Package dto HTTP层请求/响应结构
//
// 只负责JSON绑定、参数校验tag和实体到响应的转换,不包含业务规则。
package dto

import "time"

// TimeLayout 响应中的时间格式
const TimeLayout = "2006-01-02 15:04:05"

// FormatTime 零值返回空字符串
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimeLayout)
}

// DeletedResponse 删除结果,记录不存在时Deleted为false
type DeletedResponse struct {
	Deleted bool `json:"deleted" example:"true"`
}
