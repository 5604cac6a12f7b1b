package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/urbanfrill/storefront/internal/api/middleware"
	"github.com/urbanfrill/storefront/internal/auth"
	"github.com/urbanfrill/storefront/internal/checkout"
	"github.com/urbanfrill/storefront/internal/domain/order"
	"github.com/urbanfrill/storefront/internal/domain/product"
	"github.com/urbanfrill/storefront/internal/domain/user"
	"github.com/urbanfrill/storefront/internal/payment"
	"github.com/urbanfrill/storefront/internal/profile"
	"github.com/urbanfrill/storefront/internal/session"
	"github.com/urbanfrill/storefront/internal/shopper"
	"github.com/urbanfrill/storefront/pkg/validate"
)

type validationResponse struct {
	Error  string               `json:"error"`
	Fields validate.FieldErrors `json:"fields"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

var errorStatus = []struct {
	err    error
	status int
}{
	{product.ErrProductNotFound, http.StatusNotFound},
	{order.ErrOrderNotFound, http.StatusNotFound},
	{checkout.ErrDraftNotFound, http.StatusNotFound},
	{profile.ErrProfileNotFound, http.StatusNotFound},

	{order.ErrEmptyOrder, http.StatusBadRequest},
	{payment.ErrAmountTooSmall, http.StatusBadRequest},
	{payment.ErrInvalidSignature, http.StatusBadRequest},
	{payment.ErrMissingPaymentID, http.StatusBadRequest},
	{payment.ErrUnknownOutcome, http.StatusBadRequest},
	{checkout.ErrPaymentDismissed, http.StatusBadRequest},
	{user.ErrInvalidEmail, http.StatusBadRequest},
	{auth.ErrPasswordTooShort, http.StatusBadRequest},
	{auth.ErrPasswordTooLong, http.StatusBadRequest},
	{session.ErrNotAnImage, http.StatusBadRequest},

	{checkout.ErrPaymentFailed, http.StatusPaymentRequired},
	{session.ErrImageTooLarge, http.StatusRequestEntityTooLarge},

	{user.ErrInvalidCredentials, http.StatusUnauthorized},
	{auth.ErrSSOToken, http.StatusUnauthorized},
	{session.ErrNotSignedIn, http.StatusUnauthorized},

	{user.ErrEmailTaken, http.StatusConflict},
	{order.ErrInvalidStatus, http.StatusConflict},
	{order.ErrUnknownStatus, http.StatusBadRequest},
	{order.ErrOrderCancelled, http.StatusConflict},
	{order.ErrOrderAlreadyPaid, http.StatusConflict},
	{checkout.ErrLocalOrder, http.StatusConflict},

	{payment.ErrNotConfigured, http.StatusServiceUnavailable},
	{auth.ErrSSODisabled, http.StatusServiceUnavailable},
}

// respondServiceError maps domain errors to HTTP statuses. Anything unknown
// is logged and reported as a 500 without details.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var fields validate.FieldErrors
	if errors.As(err, &fields) {
		respondJSON(w, http.StatusBadRequest, validationResponse{Error: "validation failed", Fields: fields})
		return
	}

	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			respondJSONError(w, err.Error(), e.status)
			return
		}
	}

	logger.Error("Request failed", zap.Error(err))
	respondJSONError(w, "internal server error", http.StatusInternalServerError)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// currentShopper returns the request's shopper. The router installs the
// shopper middleware on every /api route, so a miss is a wiring bug.
func currentShopper(w http.ResponseWriter, r *http.Request) (*shopper.Shopper, bool) {
	sh, ok := middleware.GetShopper(r.Context())
	if !ok {
		respondJSONError(w, "internal server error", http.StatusInternalServerError)
	}
	return sh, ok
}
