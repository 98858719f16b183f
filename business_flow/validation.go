package businessflow

import (
	"errors"

	"github.com/amirphl/orochi-partners/models"
	"github.com/amirphl/orochi-partners/utils"
	"github.com/go-playground/validator/v10"
)

var payloadValidator = newPayloadValidator()

func newPayloadValidator() *validator.Validate {
	v := utils.NewValidator()
	v.RegisterStructValidation(validateOnboardingStruct, models.ProgramOnboardingData{})
	return v
}

// validateOnboardingStruct caps percentage rewards at 100 percent and only
// accepts link structures that can be selected today
func validateOnboardingStruct(sl validator.StructLevel) {
	d := sl.Current().Interface().(models.ProgramOnboardingData)
	if d.Type != nil && *d.Type == models.RewardTypePercentage && d.Amount != nil && *d.Amount > 100 {
		sl.ReportError(d.Amount, "amount", "Amount", "max_percentage", "100")
	}
	if models.IsKnownLinkStructure(d.LinkStructure) && !models.IsSelectableLinkStructure(d.LinkStructure) {
		sl.ReportError(d.LinkStructure, "linkStructure", "LinkStructure", "coming_soon", "")
	}
}

// ObjectStore tells stored object URLs apart from foreign ones
type ObjectStore interface {
	IsStored(rawURL string) bool
}

// ValidateOnboardingData checks the staged payload against its schema. A logo
// URL must point at an object in store; data URIs are accepted as is.
func ValidateOnboardingData(data *models.ProgramOnboardingData, store ObjectStore) error {
	if data.IsEmpty() {
		return ErrMissingOnboardingData
	}
	err := validateStruct(data, ErrOnboardingValidation)
	if logoErr := checkLogoSource(data.Logo, store); logoErr != nil {
		return mergeFieldError(err, *logoErr, ErrOnboardingValidation)
	}
	return err
}

// checkLogoSource rejects logo URLs that were not uploaded through storage
func checkLogoSource(logo *string, store ObjectStore) *FieldError {
	src := utils.Deref(logo)
	if src == "" || utils.IsImageDataURI(src) {
		return nil
	}
	if !utils.IsWebURL(src) {
		// the struct tag already reports it
		return nil
	}
	if store != nil && store.IsStored(src) {
		return nil
	}
	return &FieldError{Field: "logo", Rule: "logo_source", Message: "must be an uploaded image URL or an image data URI"}
}

func mergeFieldError(err error, fe FieldError, kind error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		verr.Fields = append(verr.Fields, fe)
		return verr
	}
	return &ValidationError{Fields: []FieldError{fe}, kind: kind}
}

func validateStruct(s any, kind error) error {
	err := payloadValidator.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Fields: []FieldError{{Field: "", Rule: "invalid", Message: err.Error()}}, kind: kind}
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   trimNamespace(fe.Namespace()),
			Rule:    fe.Tag(),
			Message: fieldMessage(fe),
		})
	}
	return &ValidationError{Fields: fields, kind: kind}
}

// trimNamespace drops the root struct name, e.g. ProgramOnboardingData.partners[0].email
func trimNamespace(ns string) string {
	for i := 0; i < len(ns); i++ {
		if ns[i] == '.' {
			return ns[i+1:]
		}
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "web_url":
		return "must be an http or https URL"
	case "hostname_rfc1123":
		return "must be a valid domain"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte", "max_percentage":
		return "must be less than or equal to " + fe.Param()
	case "unique":
		return "must not contain duplicates"
	case "coming_soon":
		return "is coming soon and cannot be selected yet"
	case "link_key":
		return "may only contain letters, numbers, dashes and underscores"
	case "logo_source":
		return "must be an uploaded image URL or an image data URI"
	default:
		return "is invalid"
	}
}
