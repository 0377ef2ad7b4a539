package constants

// Request-context keys the auth gate injects for downstream handlers.
// Shared here so the gate and the handlers that read the identity can
// never drift apart.
const (
	CtxUserID    = "user_id"
	CtxUserEmail = "user_email"
	CtxUserRole  = "user_role"
	CtxTokenJTI  = "token_jti"
	CtxTokenExp  = "token_exp"
)
