package models

import (
	"fmt"
	"strings"
)

// examplePartnerKey is the placeholder partner key shown in option previews
const examplePartnerKey = "steven"

// LinkStructureOption describes a selectable link-structure strategy
type LinkStructureOption struct {
	ID         LinkStructure `json:"id"`
	Label      string        `json:"label"`
	Example    string        `json:"example"`
	ComingSoon bool          `json:"coming_soon,omitempty"`
}

// LinkStructureOptions returns the strategies available for a program's
// domain and destination URL, in display order.
func LinkStructureOptions(domain, url string) []LinkStructureOption {
	base := strings.TrimSuffix(stripScheme(url), "/")
	return []LinkStructureOption{
		{
			ID:      LinkStructureShort,
			Label:   "Short link",
			Example: fmt.Sprintf("%s/%s", domain, examplePartnerKey),
		},
		{
			ID:         LinkStructureQuery,
			Label:      "Query parameter",
			Example:    fmt.Sprintf("%s?via=%s", base, examplePartnerKey),
			ComingSoon: true,
		},
		{
			ID:         LinkStructurePath,
			Label:      "Dynamic path",
			Example:    fmt.Sprintf("%s/refer/%s", base, examplePartnerKey),
			ComingSoon: true,
		},
	}
}

// IsSelectableLinkStructure reports whether s is a known strategy that is not
// flagged as coming soon.
func IsSelectableLinkStructure(s LinkStructure) bool {
	for _, opt := range LinkStructureOptions("", "") {
		if opt.ID == s {
			return !opt.ComingSoon
		}
	}
	return false
}

// IsKnownLinkStructure reports whether s names any strategy, selectable or not
func IsKnownLinkStructure(s LinkStructure) bool {
	for _, opt := range LinkStructureOptions("", "") {
		if opt.ID == s {
			return true
		}
	}
	return false
}

func stripScheme(url string) string {
	for _, prefix := range []string{"https://", "http://"} {
		if strings.HasPrefix(url, prefix) {
			return strings.TrimPrefix(url, prefix)
		}
	}
	return url
}
