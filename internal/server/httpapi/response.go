package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/gophstore/internal/common"
)

// ErrorBody is the envelope of every non-2xx response. Message carries the
// sentinel text so clients can recover the error with common.FromMessage.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, ErrorBody{Code: code, Message: message})
}

func writeDomainError(w http.ResponseWriter, err error) {
	statusCode, code, message := mapDomainError(err)
	writeError(w, statusCode, code, message)
}

func mapDomainError(err error) (int, string, string) {
	sentinel, ok := common.Surface(err)
	if !ok {
		return http.StatusInternalServerError, "Internal", common.ErrorInternal.Error()
	}

	msg := sentinel.Error()
	switch sentinel {
	case common.ErrValidation:
		return http.StatusBadRequest, "ValidationError", msg
	case common.ErrAlreadyOwned:
		return http.StatusConflict, "AlreadyOwned", msg
	case common.ErrNotPurchasable:
		return http.StatusUnprocessableEntity, "NotPurchasable", msg
	case common.ErrPaymentNotCompleted:
		return http.StatusPaymentRequired, "PaymentNotCompleted", msg
	case common.ErrGatewayUnavailable:
		return http.StatusServiceUnavailable, "GatewayUnavailable", msg
	case common.ErrNotOwned:
		return http.StatusForbidden, "NotOwned", msg
	case common.ErrIntentNotFound:
		return http.StatusNotFound, "IntentNotFound", msg
	case common.ErrDownloadTokenNotFound:
		return http.StatusNotFound, "TokenNotFound", msg
	case common.ErrDownloadTokenExpired:
		return http.StatusGone, "TokenExpired", msg
	case common.ErrorUnauthorized, common.ErrInvalidToken, common.ErrTokenExpired:
		return http.StatusUnauthorized, "Unauthorized", msg
	default:
		return http.StatusInternalServerError, "Internal", common.ErrorInternal.Error()
	}
}
