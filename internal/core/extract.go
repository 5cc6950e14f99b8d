package core

import (
	"regexp"
	"strings"
)

var responseTagPattern = regexp.MustCompile(`(?s)<response>(.*?)</response>`)

// ExtractResponse returns the trimmed body of the first <response> block in
// raw. When raw has no such block, or the block is blank, raw is returned
// unchanged.
func ExtractResponse(raw string) string {
	m := responseTagPattern.FindStringSubmatch(raw)
	if m == nil {
		return raw
	}
	if body := strings.TrimSpace(m[1]); body != "" {
		return body
	}
	return raw
}
