package model

// SizeTier is the environmental size classification used for licensing.
type SizeTier string

// Size tiers, ordered by magnitude.
const (
	SizeMicro         SizeTier = "Micro"
	SizeSmall         SizeTier = "Small"
	SizeMedium        SizeTier = "Medium"
	SizeLarge         SizeTier = "Large"
	SizeExceptional   SizeTier = "Exceptional"
	SizeNotClassified SizeTier = "Not Classified"
)

// FeeStatus is the licensing-fee exemption decision.
type FeeStatus string

// Fee statuses.
const (
	FeeExempt      FeeStatus = "Exempt"
	FeeSubject     FeeStatus = "Subject-to-Fee"
	FeeUnderReview FeeStatus = "Under-Review"
)

// LicensingStatus describes the sales opportunity a lead represents.
type LicensingStatus string

// Licensing statuses.
const (
	StatusInitialLicensing LicensingStatus = "Initial-Licensing-Opportunity"
	StatusRecurringRenewal LicensingStatus = "Recurring-Renewal-Opportunity"
	StatusStandard         LicensingStatus = "Standard-Monitoring"
	StatusDateUnavailable  LicensingStatus = "Date-Unavailable"
	StatusDateInvalid      LicensingStatus = "Date-Invalid"
	StatusNotRequired      LicensingStatus = "No-Mandatory-Licensing"
)

// Recommended actions.
const (
	ActionIgnore       = "Ignore"
	ActionContact      = "Contact for Licensing"
	ActionOfferRenewal = "Offer Renewal/Monitoring"
	ActionVerifyStatus = "Verify Compliance"
)

// Risk tags.
const (
	RiskHighPotential    = "High-Potential"
	RiskLowImpact        = "Low-Impact"
	RiskAttachedWorkshop = "Attention: check attached workshop/car wash"
)

// Sentinels for leads that match no legal group.
const (
	GroupIDUnclassified   = "N/A"
	GroupDescUnclassified = "Outros"
)

// EnrichedLead is a RawCompany plus the licensing classification derived
// from it.
type EnrichedLead struct {
	RawCompany

	GroupID          string          `json:"grupo_id"`
	GroupDescription string          `json:"grupo_descricao"`
	ClassifiedBy     string          `json:"classificado_por,omitempty"`
	SizeTier         SizeTier        `json:"porte_calculado"`
	FeeStatus        FeeStatus       `json:"status_taxa"`
	LicensingStatus  LicensingStatus `json:"status_radar"`
	Action           string          `json:"acao_recomendada"`
	RiskTag          string          `json:"tag_risco"`
	RouteLink        string          `json:"rota"`
}

// Classified reports whether the lead was matched to a legal group.
func (l EnrichedLead) Classified() bool {
	return l.GroupID != "" && l.GroupID != GroupIDUnclassified
}
