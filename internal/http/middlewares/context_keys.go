package middlewares

const (
	// CtxRequestID is the gin context key the request-ID middleware sets and
	// the response helpers read back.
	CtxRequestID = "request_id"
)
