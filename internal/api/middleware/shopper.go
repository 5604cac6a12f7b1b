package middleware

import (
	"context"
	"net/http"

	"github.com/urbanfrill/storefront/internal/shopper"
)

// ShopperMiddleware resolves the device's shopper and aligns its session
// with the request token. A request without a valid token signs the device
// out, so the session never outlives its credentials.
//
// It must run after DeviceMiddleware and OptionalAuthMiddleware.
func ShopperMiddleware(registry *shopper.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			device := GetDevice(r.Context())
			if device == "" {
				respondError(w, "missing device", http.StatusBadRequest)
				return
			}

			sh, release := registry.Acquire(r.Context(), device)
			defer release()

			if claims, ok := GetUserFromContext(r.Context()); ok {
				sh.Session.Restore(r.Context(), claims.Identity())
			} else {
				sh.Session.Restore(r.Context(), nil)
			}

			ctx := context.WithValue(r.Context(), ShopperContextKey, sh)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetShopper returns the shopper resolved for the request.
func GetShopper(ctx context.Context) (*shopper.Shopper, bool) {
	sh, ok := ctx.Value(ShopperContextKey).(*shopper.Shopper)
	return sh, ok
}
