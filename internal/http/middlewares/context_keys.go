package middlewares

// gin.Context keys shared by the middlewares and handlers.
const (
	CtxRequestID  = "request_id"
	CtxActorEmail = "actor_email"
)
