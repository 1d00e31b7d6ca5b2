// Package errcode 定义导出通知中携带的数字错误码。
package errcode

// 错误码约定：
// - 0：无错误
// - 4xxx：导出对象已不存在（CV 或导出记录被删除），无需重试
// - 5xxx：系统错误（渲染、存储等环节失败）
const (
	OK              = 0
	ResourceMissing = 4004
	SystemError     = 5000
	RenderFailed    = 5001
	UploadFailed    = 5002
)
