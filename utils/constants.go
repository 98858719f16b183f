package utils

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Partner program constants
const (
	// PartnerLinksFolderName is the folder every workspace program keeps its partner links in
	PartnerLinksFolderName = "Partner Links"

	// InvoicePrefixLength is the length of the generated workspace invoice prefix
	InvoicePrefixLength = 8

	// LogoKeySuffixLength is the length of the random suffix of a stored program logo
	LogoKeySuffixLength = 7

	// PartnerLinkKeyLength is the length of a generated partner link key
	PartnerLinkKeyLength = 7

	// MaxOnboardingPartners caps the partners that can be invited during onboarding
	MaxOnboardingPartners = 10

	// ImportCampaignAction is the importer job action queued after provisioning
	ImportCampaignAction = "import-campaign"
)

// AllowedCookieLengths lists the cookie durations (days) a program may track referrals for
var AllowedCookieLengths = []int{7, 14, 30, 60, 90, 180}

// IsAllowedCookieLength reports whether days is one of AllowedCookieLengths
func IsAllowedCookieLength(days int) bool {
	for _, v := range AllowedCookieLengths {
		if v == days {
			return true
		}
	}
	return false
}
