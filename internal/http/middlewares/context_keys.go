package middlewares

const (
	CtxRequestID = "request_id"
	ctxSession   = "auth.session"
)
