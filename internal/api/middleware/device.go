package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	DeviceCookie    = "uf_device"
	deviceCookieAge = 365 * 24 * time.Hour
)

// DeviceMiddleware reads the device id cookie, issuing a new id when it is
// missing or malformed.
func DeviceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		device := ""
		if c, err := r.Cookie(DeviceCookie); err == nil {
			if id, err := uuid.Parse(c.Value); err == nil {
				device = id.String()
			}
		}

		if device == "" {
			device = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     DeviceCookie,
				Value:    device,
				Path:     "/",
				MaxAge:   int(deviceCookieAge.Seconds()),
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), DeviceContextKey, device)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetDevice returns the request's device id.
func GetDevice(ctx context.Context) string {
	device, _ := ctx.Value(DeviceContextKey).(string)
	return device
}
