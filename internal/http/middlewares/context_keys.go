package middlewares

const (
	CtxRequestID = "request_id"
	ctxActorKey  = "auth.actor"
)
