// Package checkout implements the pricing pipeline and multi-provider
// payment-session orchestration.
package checkout

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
)

// Method selects which payment branch handles the checkout.
type Method string

const (
	// MethodNuvi is the platform-connected hosted session path.
	MethodNuvi Method = "nuvi"
	// MethodStripe is the merchant-owned hosted session path.
	MethodStripe Method = "stripe"
	// MethodPayPal is reserved; checkout through it is not implemented.
	MethodPayPal Method = "paypal"
	// MethodManual creates a pending order paid offline by bank transfer.
	MethodManual Method = "manual"
)

// ItemInput is one requested cart line.
type ItemInput struct {
	VariantID string `json:"variantId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

// CustomerInput is the buyer's contact information.
type CustomerInput struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone"`
}

// AddressInput is a shipping or billing address.
type AddressInput struct {
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required,len=2,alpha"`
}

// Request is the full checkout payload. Metadata is forwarded opaquely to the
// payment provider.
type Request struct {
	Items           []ItemInput       `json:"items" validate:"required,min=1,dive"`
	Customer        CustomerInput     `json:"customer"`
	ShippingAddress AddressInput      `json:"shippingAddress"`
	BillingAddress  *AddressInput     `json:"billingAddress"`
	DiscountCode    string            `json:"discountCode"`
	PaymentMethod   Method            `json:"paymentMethod" validate:"omitempty,oneof=nuvi stripe paypal manual"`
	Note            string            `json:"note"`
	Metadata        map[string]string `json:"metadata"`
}

// Normalize fills in defaults: payment method falls back to stripe, billing
// address falls back to the shipping address.
func (r *Request) Normalize() {
	if r.PaymentMethod == "" {
		r.PaymentMethod = MethodStripe
	}
	if r.BillingAddress == nil {
		addr := r.ShippingAddress
		r.BillingAddress = &addr
	}
}

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every invalid field of a request. Validation is
// all-or-nothing: no partially valid request proceeds.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid checkout request: %d invalid fields", len(e.Fields))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateRequest checks the payload and returns a *ValidationError listing
// every invalid field, or nil when the request is well-formed.
func ValidateRequest(r *Request) error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   fieldPath(fe),
			Message: fieldMessage(fe),
		})
	}
	return &ValidationError{Fields: fields}
}

// fieldPath strips the root struct name from the namespace, leaving the
// JSON path, e.g. "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "gt":
		return "must be greater than " + fe.Param()
	case "min":
		return "must contain at least " + fe.Param() + " item(s)"
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "alpha":
		return "must contain only letters"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}
