package sizing

import (
	"strconv"
	"strings"
)

// ParseHeadcount converts a provider employee count to an integer. Ranges
// such as "10-50" yield the upper bound. Anything unparseable counts as 0.
func ParseHeadcount(raw string) int {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "-") {
		parts := strings.Split(raw, "-")
		raw = strings.TrimSpace(parts[1])
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
