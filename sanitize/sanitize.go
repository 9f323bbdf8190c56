// Package sanitize normalizes user supplied text and links before they are stored or echoed back.
package sanitize

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	TitleMin   = 2
	TitleMax   = 50
	CreatorMin = 2
	CreatorMax = 30

	fileNameMax = 100
	linkMax     = 500
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	// schemes that must never survive inside free text
	textSchemes = regexp.MustCompile(`(?i)(javascript|vbscript|data)\s*:`)
	webUrl      = regexp.MustCompile(`(?i)^https?://[a-z0-9](?:[a-z0-9-]*[a-z0-9])?(?:\.[a-z0-9](?:[a-z0-9-]*[a-z0-9])?)+(?::\d{1,5})?(?:[/?#]\S*)?$`)

	deniedSchemes = []string{"javascript:", "data:", "vbscript:", "file:", "about:", "blob:"}

	// html significant characters are swapped for their fullwidth forms instead of being escaped,
	// the text reads the same but is inert in markup
	lookalikes = strings.NewReplacer(
		"<", "＜",
		">", "＞",
		`"`, "＂",
		"'", "＇",
		"&", "＆",
	)
)

// Text trims and collapses whitespace, bounds the result to maxLength runes and neutralizes markup.
// Text(Text(s, n), n) == Text(s, n).
func Text(raw string, maxLength int) string {
	s := raw
	for {
		stripped := textSchemes.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = stripped
	}
	s = whitespace.ReplaceAllString(strings.TrimSpace(s), " ")
	s = strings.TrimSpace(truncate(s, maxLength))
	return lookalikes.Replace(s)
}

// FileName bounds a client supplied file name for use in reports.
func FileName(raw string) string {
	if name := Text(raw, fileNameMax); name != "" {
		return name
	}
	return "unnamed"
}

// Link validates a creator link and returns its normalized form, or an empty string when it is unsafe.
// A missing scheme defaults to https.
func Link(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || utf8.RuneCountInString(s) > linkMax || hasDeniedScheme(s) {
		return ""
	}
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		if webUrl.MatchString(s) {
			return s
		}
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	host := u.Hostname()
	if !strings.Contains(host, ".") || strings.HasPrefix(host, ".") || strings.HasSuffix(host, ".") {
		return ""
	}
	if u.User != nil {
		return ""
	}
	if u.Path == "" {
		u.Path = "/"
	}
	res := u.String()
	if hasDeniedScheme(res) {
		return ""
	}
	return res
}

// Length returns the length in runes, the unit all bounds are expressed in.
func Length(s string) int {
	return utf8.RuneCountInString(s)
}

func hasDeniedScheme(s string) bool {
	lower := strings.ToLower(s)
	for _, scheme := range deniedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

func truncate(s string, maxLength int) string {
	if maxLength <= 0 || utf8.RuneCountInString(s) <= maxLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLength])
}
