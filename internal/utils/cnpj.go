package utils

import (
	"regexp"
	"strings"
)

var nonDigit = regexp.MustCompile(`\D`)

// CleanCNPJ removes all non-numeric characters from CNPJ
func CleanCNPJ(cnpj string) string {
	return nonDigit.ReplaceAllString(cnpj, "")
}

// NormalizeCNPJ returns the 14-digit form of a CNPJ, restoring leading zeros
// lost when the value travelled as a JSON number. Returns "" when the input
// cannot be a CNPJ.
func NormalizeCNPJ(cnpj string) string {
	cleaned := CleanCNPJ(cnpj)
	if cleaned == "" || len(cleaned) > 14 {
		return ""
	}
	if len(cleaned) < 14 && len(cleaned) >= 12 {
		cleaned = strings.Repeat("0", 14-len(cleaned)) + cleaned
	}
	if len(cleaned) != 14 {
		return ""
	}
	return cleaned
}

// FormatCNPJ formats CNPJ with dots, slash and dash (XX.XXX.XXX/XXXX-XX)
func FormatCNPJ(cnpj string) string {
	cleaned := CleanCNPJ(cnpj)
	if len(cleaned) != 14 {
		return cnpj
	}

	return cleaned[:2] + "." + cleaned[2:5] + "." + cleaned[5:8] + "/" + cleaned[8:12] + "-" + cleaned[12:14]
}
