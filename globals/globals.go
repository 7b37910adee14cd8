package globals

// Context keys
type ContextKey string

const (
	UserIDKey    ContextKey = "userId"
	RequestIDKey ContextKey = "requestId"
)

// AuthHeader carries the raw session token; there is no Bearer prefix.
const AuthHeader = "x-auth-token"
