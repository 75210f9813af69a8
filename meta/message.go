package meta

type HttpResponse struct {
	Error string      `json:"error"` // 如果不为空代表错误信息
	Code  string      `json:"code"`  // 错误码，成功时为空
	Data  interface{} `json:"data"`
}
