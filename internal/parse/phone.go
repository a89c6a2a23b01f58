package parse

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	phoneNoiseRe = regexp.MustCompile(`[\s\-().]`)
	mobileRe     = regexp.MustCompile(`^01[016789]\d{7,8}$`)
)

// NormalizePhone reduces a Korean mobile number to bare digits.
// "+82 10-1234-5678" and "010.1234.5678" both become "01012345678".
func NormalizePhone(raw string) (string, error) {
	s := phoneNoiseRe.ReplaceAllString(strings.TrimSpace(raw), "")
	if strings.HasPrefix(s, "+82") {
		s = "0" + strings.TrimPrefix(s, "+82")
	}
	if !mobileRe.MatchString(s) {
		return "", fmt.Errorf("invalid mobile number: %q", raw)
	}
	return s, nil
}
