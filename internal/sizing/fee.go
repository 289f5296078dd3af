package sizing

import (
	"strings"

	"github.com/sells-group/radar-cli/internal/model"
)

// micro-entrepreneur markers in the legal-nature text.
var meiMarkers = []string{"MEI", "MICROEMPREENDEDOR"}

// ClassifyFee applies the Art. 16 exemption: micro-entrepreneurs and
// Micro-tier companies are exempt, everyone else pays the Annex II fee.
func ClassifyFee(legalNature string, tier model.SizeTier) model.FeeStatus {
	if IsMicroEntrepreneur(legalNature) || tier == model.SizeMicro {
		return model.FeeExempt
	}
	return model.FeeSubject
}

// IsMicroEntrepreneur reports whether the legal-nature text carries a MEI marker.
func IsMicroEntrepreneur(legalNature string) bool {
	upper := strings.ToUpper(legalNature)
	for _, m := range meiMarkers {
		if strings.Contains(upper, m) {
			return true
		}
	}
	return false
}
