package payment

import "fmt"

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeDismiss Outcome = "dismiss"
)

// Result is what the widget reported, relayed by the client.
type Result struct {
	Outcome   Outcome `json:"outcome"`
	PaymentID string  `json:"razorpay_payment_id,omitempty"`
	OrderID   string  `json:"razorpay_order_id,omitempty"`
	Signature string  `json:"razorpay_signature,omitempty"`
	// Failure details.
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// Validate checks that the result is well formed for its outcome.
func (r Result) Validate() error {
	switch r.Outcome {
	case OutcomeSuccess:
		if r.PaymentID == "" {
			return ErrMissingPaymentID
		}
	case OutcomeFailure, OutcomeDismiss:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutcome, r.Outcome)
	}
	return nil
}

// FailureMessage is the text shown to the shopper for a failed payment.
func (r Result) FailureMessage() string {
	if r.Description != "" {
		return r.Description
	}
	return "Payment failed. Please try again."
}
