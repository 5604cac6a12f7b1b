package order

import (
	"strings"

	"github.com/urbanfrill/storefront/internal/domain/user"
	"github.com/urbanfrill/storefront/pkg/validate"
)

// Normalize trims every field and lowercases the email.
func (a ShippingAddress) Normalize() ShippingAddress {
	return ShippingAddress{
		Name:    strings.TrimSpace(a.Name),
		Email:   user.NormalizeEmail(a.Email),
		Phone:   strings.TrimSpace(a.Phone),
		Address: strings.TrimSpace(a.Address),
		City:    strings.TrimSpace(a.City),
		State:   strings.TrimSpace(a.State),
		Pincode: strings.TrimSpace(a.Pincode),
	}
}

// ParsePaymentMethod maps form input to a method. Empty input means cash on
// delivery, the form's default.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(strings.ToLower(strings.TrimSpace(s))) {
	case "", PaymentCOD:
		return PaymentCOD, true
	case PaymentOnline:
		return PaymentOnline, true
	}
	return "", false
}

// ValidateCheckout checks the shipping form and payment method. The error,
// when not nil, is a validate.FieldErrors keyed by JSON field name.
func ValidateCheckout(a ShippingAddress, method string) error {
	errs := validate.FieldErrors{}

	errs.Required("name", "Full name", a.Name)
	if errs.Required("email", "Email", a.Email) && !user.IsValidEmail(a.Email) {
		errs.Add("email", "Enter a valid email address")
	}
	if errs.Required("phone", "Phone number", a.Phone) && !validate.IsPhone(a.Phone) {
		errs.Add("phone", "Enter a valid 10-digit phone number")
	}
	errs.Required("address", "Address", a.Address)
	errs.Required("city", "City", a.City)
	errs.Required("state", "State", a.State)
	if errs.Required("pincode", "PIN code", a.Pincode) && !validate.IsPincode(a.Pincode) {
		errs.Add("pincode", "Enter a valid 6-digit PIN code")
	}
	if _, ok := ParsePaymentMethod(method); !ok {
		errs.Add("paymentMethod", "Choose cash on delivery or online payment")
	}

	return errs.Err()
}
