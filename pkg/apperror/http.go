package apperror

import (
	"net/http"
)

func HTTPStatus(err error) int {
	return GetHTTPStatus(KindOf(err))
}

func GetHTTPStatus(kind Kind) int {

	switch kind {
	case InvalidInput:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case RequestTimeout:
		return http.StatusGatewayTimeout
	case Dependency, DatabaseErr, CacheErr, BrokerErr:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
