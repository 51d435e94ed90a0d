package fields

import (
	"strings"

	"github.com/nexconsult/pncp-vagas/internal/models"
	"github.com/nexconsult/pncp-vagas/internal/textnorm"
)

// closedMarkers are normalized substrings of statuses that no longer accept
// proposals.
var closedMarkers = []string{
	"encerr", "finaliz", "cancel", "revog", "anul",
	"fracass", "desert", "suspens", "conclu", "homolog", "adjud",
}

// IsOpen reports whether the record still accepts proposals. A record with no
// status is considered open.
func IsOpen(rec models.Record) bool {
	return IsOpenStatus(Get(rec, Status))
}

// IsOpenStatus applies the closed-state check to a status text.
func IsOpenStatus(status string) bool {
	s := textnorm.Normalize(status)
	if s == "" {
		return true
	}
	for _, m := range closedMarkers {
		if strings.Contains(s, m) {
			return false
		}
	}
	return true
}
