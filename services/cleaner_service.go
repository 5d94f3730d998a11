package services

import (
	"regexp"
	"strings"
)

var (
	// Dòng mục lục (EN/DE)
	reTOC = regexp.MustCompile(`(?im)^.*(table of contents|inhaltsverzeichnis).*$`)
	// Dòng số trang: "Page 3", "Seite 12", "3 / 40"
	rePageNumber = regexp.MustCompile(`(?im)^\s*((page|seite)\s*\d+.*|\d+\s*/\s*\d+)\s*$`)
	// Dòng chỉ có số, ký tự đặc biệt hoặc khoảng trắng
	reSpecialLines = regexp.MustCompile(`(?m)^[\s\W\d]*$`)
	// Dòng có code / markup
	reCode         = regexp.MustCompile(`(?im)^.*(\bconst |\bfunction |\bclass |<[^>]+>).*$`)
	reMultiNewLine = regexp.MustCompile(`\n{2,}`)
	reSpaces       = regexp.MustCompile(`[ \t]{2,}`)
)

// PreCleanText xử lý thô: loại mục lục, số trang, code, khoảng trắng
func PreCleanText(text string) string {
	cleaned := strings.ReplaceAll(text, "\r\n", "\n")
	cleaned = reTOC.ReplaceAllString(cleaned, "")
	cleaned = rePageNumber.ReplaceAllString(cleaned, "")
	cleaned = reSpecialLines.ReplaceAllString(cleaned, "")
	cleaned = reCode.ReplaceAllString(cleaned, "")
	cleaned = reSpaces.ReplaceAllString(cleaned, " ")
	cleaned = reMultiNewLine.ReplaceAllString(cleaned, "\n")
	return strings.TrimSpace(cleaned)
}
