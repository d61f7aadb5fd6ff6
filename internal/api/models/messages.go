package models

// User-facing messages returned in "message" and "error" fields.
const (
	MsgLoginRequired      = "请先登录"
	MsgInvalidCredentials = "用户名或密码错误"
	MsgLoginSuccess       = "登录成功"
	MsgLogoutSuccess      = "已退出登录"
	MsgWrongPassword      = "原密码错误"
	MsgInvalidNewPassword = "新密码不能为空且不能超过72字节"
	MsgPasswordChanged    = "密码修改成功"
	MsgDeleted            = "删除成功"
	MsgProtectedEngine    = "不能删除预置搜索引擎"
	MsgCityRequired       = "请提供城市名称"
	MsgWeatherFailed      = "获取天气失败"
	MsgNotFound           = "资源不存在"
	MsgBadRequest         = "请求参数错误"
	MsgInternalError      = "服务器内部错误"
)
