package drafts

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/doorstep-market/doorstep/app/models"
)

var validate = validator.New()

// ValidateCard checks a card edit against the binding field contracts.
func ValidateCard(card *models.ServiceCard) error {
	return translate(validate.Struct(card))
}

// ValidatePricing checks a pricing edit. Beyond the struct tags it enforces
// tier id uniqueness, which tags cannot express.
func ValidatePricing(pricing *models.ServicePricing) error {
	if err := translate(validate.Struct(pricing)); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(pricing.Tiers))
	for _, tier := range pricing.Tiers {
		if _, dup := seen[tier.ID]; dup {
			return &ValidationError{Fields: []FieldError{
				{Path: "tiers", Message: "duplicate tier id " + tier.ID},
			}}
		}
		seen[tier.ID] = struct{}{}
	}
	return nil
}

// ValidateFunnel checks a funnel edit.
func ValidateFunnel(funnel *models.ServiceFunnel) error {
	return translate(validate.Struct(funnel))
}

// translate converts validator errors into the package's ValidationError so
// handlers can return field paths without importing the validator.
func translate(err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return upstream("validate", err)
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Path:    fieldPath(fe.Namespace()),
			Message: fieldMessage(fe),
		})
	}
	return &ValidationError{Fields: fields}
}

// fieldPath strips the root struct name and lowercases the remaining
// segments so paths line up with the JSON payload keys.
func fieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = strings.ToLower(p)
	}
	return strings.Join(parts, ".")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must have at least " + fe.Param() + " characters or items"
	case "max":
		return "must have at most " + fe.Param() + " characters or items"
	case "len":
		return "must be exactly " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "url":
		return "must be a valid URL"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}
