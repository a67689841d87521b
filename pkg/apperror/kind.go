package apperror

type Kind string

const (
	InvalidInput   Kind = "invalid_input"
	NotFound       Kind = "not_found"
	Conflict       Kind = "conflict"
	RequestTimeout Kind = "request_timeout"
	Internal       Kind = "internal"
	Dependency     Kind = "dependency_failure"
	DatabaseErr    Kind = "database_error"
	CacheErr       Kind = "cache_error"
	BrokerErr      Kind = "broker_error"
)
