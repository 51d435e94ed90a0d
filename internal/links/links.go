// Package links builds public PNCP portal URLs for procurement records.
package links

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/nexconsult/pncp-vagas/internal/fields"
	"github.com/nexconsult/pncp-vagas/internal/models"
	"github.com/nexconsult/pncp-vagas/internal/utils"
)

// PortalHost is the public PNCP portal.
const PortalHost = "https://pncp.gov.br"

// controlNumber matches numeroControlePNCP values such as
// 12345678000199-1-000004/2026 and, for minutes, 12345678000199-1-000004/2026-000001.
var controlNumber = regexp.MustCompile(`^(\d{14})-([12])-(\d+)/(\d{4})(?:-(\d+))?$`)

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// Build returns the portal URL for rec, or "" when none can be derived.
// The document type defaults to notice.
func Build(rec models.Record, docType models.DocumentType) string {
	if rec == nil {
		return ""
	}
	if docType == "" {
		docType = models.DocumentNotice
	}

	if link := fromControlNumber(fields.Get(rec, fields.ControlNumber)); link != "" {
		return link
	}
	if link := fromParts(rec, docType); link != "" {
		return link
	}
	return NormalizeURL(fields.Get(rec, fields.Link))
}

func fromControlNumber(id string) string {
	m := controlNumber.FindStringSubmatch(strings.TrimSpace(id))
	if m == nil {
		return ""
	}
	cnpj, kind, seq, year, ataSeq := m[1], m[2], NormalizeSequential(m[3]), m[4], m[5]

	switch {
	case ataSeq != "":
		return PortalHost + "/app/atas/" + cnpj + "/" + year + "/" + seq + "/" + NormalizeSequential(ataSeq)
	case kind == "2":
		return PortalHost + "/app/contratos/" + cnpj + "/" + year + "/" + seq
	default:
		return PortalHost + "/app/editais/" + cnpj + "/" + year + "/" + seq
	}
}

func fromParts(rec models.Record, docType models.DocumentType) string {
	cnpj := taxID(fields.Value(rec, fields.TaxID))
	if cnpj == "" {
		return ""
	}

	switch docType {
	case models.DocumentMinutes:
		year := fields.Get(rec, fields.Year)
		seq := sequential(rec, fields.Sequential, fields.Number)
		ataSeq := fields.Get(rec, fields.MinutesSeq)
		if !yearPattern.MatchString(year) || seq == "" || ataSeq == "" {
			return ""
		}
		return PortalHost + "/app/atas/" + cnpj + "/" + year + "/" + seq + "/" + NormalizeSequential(ataSeq)
	case models.DocumentContract:
		year := fields.Get(rec, fields.ContractYear)
		seq := sequential(rec, fields.ContractSeq)
		if !yearPattern.MatchString(year) || seq == "" {
			return ""
		}
		return PortalHost + "/app/contratos/" + cnpj + "/" + year + "/" + seq
	default:
		year := fields.Get(rec, fields.Year)
		seq := sequential(rec, fields.Sequential, fields.Number)
		if !yearPattern.MatchString(year) || seq == "" {
			return ""
		}
		return PortalHost + "/app/editais/" + cnpj + "/" + year + "/" + seq
	}
}

func sequential(rec models.Record, candidates ...fields.Field) string {
	for _, f := range candidates {
		if v := fields.Get(rec, f); v != "" {
			return NormalizeSequential(v)
		}
	}
	return ""
}

// taxID accepts a 14-digit string. Numeric values have their leading zeros
// restored first.
func taxID(v interface{}) string {
	switch n := v.(type) {
	case json.Number:
		return utils.NormalizeCNPJ(n.String())
	case float64:
		return utils.NormalizeCNPJ(strconv.FormatFloat(n, 'f', 0, 64))
	case int64:
		return utils.NormalizeCNPJ(strconv.FormatInt(n, 10))
	case int:
		return utils.NormalizeCNPJ(strconv.Itoa(n))
	case string:
		cleaned := utils.CleanCNPJ(n)
		if len(cleaned) == 14 {
			return cleaned
		}
	}
	return ""
}

// NormalizeSequential strips leading zeros: "000004" becomes "4".
func NormalizeSequential(s string) string {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return strconv.Itoa(n)
	}
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" && s != "" {
		return "0"
	}
	return trimmed
}

// NormalizeURL turns an origin-system link into an absolute HTTPS URL.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return ""
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.HasPrefix(raw, "/"):
		return PortalHost + raw
	case strings.Contains(raw, "://"):
		return raw
	default:
		return "https://" + raw
	}
}
