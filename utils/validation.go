package utils

import (
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var linkKeyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// NewValidator returns a validator that reports json field names and knows the
// custom tags web_url, link_key and logo_source
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("web_url", validateWebURL)
	_ = v.RegisterValidation("link_key", validateLinkKey)
	_ = v.RegisterValidation("logo_source", validateLogoSource)

	return v
}

// IsWebURL reports whether s is an absolute http(s) URL with a host
func IsWebURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsImageDataURI reports whether s is a base64 encoded image data URI
func IsImageDataURI(s string) bool {
	return strings.HasPrefix(s, "data:image/") && strings.Contains(s, ";base64,")
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

func validateWebURL(fl validator.FieldLevel) bool {
	return IsWebURL(fl.Field().String())
}

func validateLinkKey(fl validator.FieldLevel) bool {
	return linkKeyPattern.MatchString(fl.Field().String())
}

func validateLogoSource(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return IsImageDataURI(s) || IsWebURL(s)
}
