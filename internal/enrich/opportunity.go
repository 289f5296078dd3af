package enrich

import (
	"strings"
	"time"

	"github.com/sells-group/radar-cli/internal/model"
)

// Age thresholds in days.
const (
	initialLicensingMaxDays = 120
	renewalMinDays          = 365
)

// Opportunity derives the licensing status and recommended action from the
// founding date. Missing and malformed dates are reported through the
// status; they are not errors.
func Opportunity(foundedOn string, now time.Time) (model.LicensingStatus, string) {
	foundedOn = strings.TrimSpace(foundedOn)
	if foundedOn == "" {
		return model.StatusDateUnavailable, model.ActionIgnore
	}
	days, ok := AgeDays(foundedOn, now)
	if !ok {
		return model.StatusDateInvalid, model.ActionIgnore
	}

	switch {
	case days <= initialLicensingMaxDays:
		return model.StatusInitialLicensing, model.ActionContact
	case days > renewalMinDays:
		return model.StatusRecurringRenewal, model.ActionOfferRenewal
	default:
		return model.StatusStandard, model.ActionVerifyStatus
	}
}

// AgeDays returns the calendar days between foundedOn and the date of now
// in its own location, or false when the date is missing or malformed.
func AgeDays(foundedOn string, now time.Time) (int, bool) {
	founded, err := time.Parse(time.DateOnly, strings.TrimSpace(foundedOn))
	if err != nil {
		return 0, false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(today.Sub(founded).Hours() / 24), true
}
