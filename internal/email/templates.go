package email

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/urbanfrill/storefront/internal/domain/order"
)

// BuildOrderConfirmationBody builds the HTML body for order confirmation email
func BuildOrderConfirmationBody(o *order.Order) string {
	var itemsHTML strings.Builder
	for _, item := range o.Items {
		name := item.Name
		if name == "" {
			name = fmt.Sprintf("Product %d", item.ProductID)
		}
		price := decimal.NewFromFloat(item.Price)
		itemsHTML.WriteString(fmt.Sprintf(
			`<tr>
				<td style="padding: 12px; border-bottom: 1px solid #eee;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
			</tr>`,
			html.EscapeString(name),
			item.Quantity,
			FormatRupees(price),
			FormatRupees(price.Mul(decimal.NewFromInt(int64(item.Quantity)))),
		))
	}

	payment := "Cash on delivery"
	if o.PaymentMethod == order.PaymentOnline {
		payment = "Paid online"
	}
	a := o.ShippingAddress

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #0d9488; padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">Thank you for your order</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<p style="margin-top: 0;">Hi %s, we have received your order and will let you know when it ships.</p>

		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">#%s</p>
			<p style="margin: 5px 0 0 0; font-size: 14px; color: #666;">%s</p>
		</div>

		<h2 style="font-size: 18px; border-bottom: 2px solid #0d9488; padding-bottom: 10px;">Order details</h2>

		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f8f9fa;">
					<th style="padding: 12px; text-align: left; font-weight: 600;">Item</th>
					<th style="padding: 12px; text-align: center; font-weight: 600;">Qty</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Price</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Subtotal</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
		</table>

		<div style="text-align: right; padding: 20px; background: #f8f9fa; border-radius: 5px;">
			<span style="font-size: 14px; color: #666;">Total</span>
			<span style="font-size: 24px; font-weight: bold; color: #0d9488; margin-left: 10px;">%s</span>
		</div>

		<h2 style="font-size: 18px; border-bottom: 2px solid #0d9488; padding-bottom: 10px;">Shipping to</h2>
		<p style="margin: 0;">%s<br>%s<br>%s, %s %s<br>%s</p>

		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			This is an automated message. If you have questions about your order, reply to this email.
		</p>
	</div>
</body>
</html>`,
		html.EscapeString(a.Name),
		html.EscapeString(o.ShortID()),
		payment,
		itemsHTML.String(),
		FormatRupees(decimal.NewFromFloat(o.TotalAmount)),
		html.EscapeString(a.Name),
		html.EscapeString(a.Address),
		html.EscapeString(a.City),
		html.EscapeString(a.State),
		html.EscapeString(a.Pincode),
		html.EscapeString(a.Phone),
	)
}

// FormatRupees renders an amount with Indian digit grouping, e.g. ₹1,23,456.50.
// Whole amounts drop the paise.
func FormatRupees(amount decimal.Decimal) string {
	amount = amount.Round(2)
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	whole := amount.Truncate(0)
	s := groupIndian(whole.String())
	if frac := amount.Sub(whole); !frac.IsZero() {
		s += amount.StringFixed(2)[len(whole.String()):]
	}
	return sign + "₹" + s
}

// groupIndian inserts commas after the last three digits and then every two.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var result strings.Builder
	remainder := len(head) % 2
	if remainder > 0 {
		result.WriteString(head[:remainder])
	}
	for i := remainder; i < len(head); i += 2 {
		if result.Len() > 0 {
			result.WriteString(",")
		}
		result.WriteString(head[i : i+2])
	}
	result.WriteString(",")
	result.WriteString(tail)
	return result.String()
}
