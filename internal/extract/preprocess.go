package extract

import (
	"encoding/base64"
	"regexp"
	"strings"

	"telegram-email-bot/internal/emailaddr"
)

// Precompiled patterns for heavy use. Addresses in PDF text arrive torn
// apart by line wraps, soft hyphens and anti-scrape obfuscation; these fix
// the text before the candidate scan runs.
var (
	// "iva-\nnov@x.ru" -> "ivanov@x.ru"; requires two word chars before the
	// break so a leading single letter is never swallowed.
	rxDehyphen = regexp.MustCompile(`(\w\w)-[ \t]*\n[ \t]*([\w.])`)
	rxSoftWrap = regexp.MustCompile(`(\w\w)[ \t]*\n[ \t]*([\w.]+@)`)
	// "ivanov.\npetrov@x.ru" style breaks right after a dot or underscore.
	rxJoinDot = regexp.MustCompile(`([A-Za-z]{2,})([._])[ \t]*\n[ \t]*([A-Za-z][A-Za-z0-9._%+-]*@)`)
	// "ivanov\n2023@x.ru" numeric tail on the next line.
	rxJoinNum = regexp.MustCompile(`([A-Za-z]{2,})[ \t]*\n[ \t]*([0-9]{1,6}[ \t]*@)`)

	rxSpacedAt  = regexp.MustCompile(`[ \t]*@[ \t]*`)
	rxSpacedDot = regexp.MustCompile(`(@[A-Za-z0-9.-]+)[ \t]*\.[ \t]*([A-Za-z]{2,10})\b`)
	rxDotCom    = regexp.MustCompile(`(?i)\.[ \t]*c[ \t]*o[ \t]*m\b`)
	rxDotRu     = regexp.MustCompile(`(?i)\.[ \t]*r[ \t]*u\b`)

	providers = `gmail|yahoo|hotmail|outlook|protonmail|icloud|aol|live|msn|mail|yandex|rambler|bk|list|inbox|ya`
	rxProvCoM = regexp.MustCompile(`(?i)(@(?:` + providers + `)\.co)[ \t]+m\b`)
	rxProvCo  = regexp.MustCompile(`(?i)(@(?:` + providers + `)\.co)([^a-z0-9]|$)`)

	// A closing bracket, quote, colon or equals glued to the left of an
	// address ("E-mail:ivanov@…", ")ivanov@…").
	rxLeftGlue = regexp.MustCompile("([)\\]»”\"':=])([A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\\.[A-Za-z]{2,})")

	// Long phone number glued to the left of the local part.
	rxPhonePrefix = regexp.MustCompile(`^(\+?[0-9][0-9 -]{6,}[0-9])([A-Za-z].*)$`)

	rxBase64Token = regexp.MustCompile(`[A-Za-z0-9+/]{8,200}={0,2}`)
)

// Preprocess repairs a text chunk before the candidate scan. Counters for
// every repair kind are accumulated into stats.
func Preprocess(text string, stats Stats) string {
	s := emailaddr.CleanText(text)

	s = replaceCounted(rxDehyphen, s, "$1$2", stats, "dehyphenated")
	s = replaceCounted(rxSoftWrap, s, "$1$2", stats, "dehyphenated")
	s = replaceCounted(rxJoinDot, s, "$1$2$3", stats, "dehyphenated")
	s = replaceCounted(rxJoinNum, s, "$1$2", stats, "dehyphenated")

	s = rxSpacedAt.ReplaceAllString(s, "@")
	s = rxSpacedDot.ReplaceAllString(s, "$1.$2")
	s = rxDotCom.ReplaceAllString(s, ".com")
	s = rxDotRu.ReplaceAllString(s, ".ru")
	s = rxProvCoM.ReplaceAllString(s, "${1}m")
	s = rxProvCo.ReplaceAllString(s, "${1}m$2")

	s = replaceCounted(rxLeftGlue, s, "$1 $2", stats, "left_glue_fixed")
	return s
}

func replaceCounted(re *regexp.Regexp, s, repl string, stats Stats, key string) string {
	n := len(re.FindAllStringIndex(s, -1))
	if n == 0 {
		return s
	}
	if stats != nil {
		stats[key] += n
	}
	return re.ReplaceAllString(s, repl)
}

// StripPhonePrefix removes a phone number stuck to the left of a local part.
func StripPhonePrefix(local string, stats Stats) string {
	m := rxPhonePrefix.FindStringSubmatch(local)
	if m == nil {
		return local
	}
	if stats != nil {
		stats["phone_prefix_stripped"]++
	}
	return m[2]
}

// DecodeBase64Blobs finds short base64 runs that decode to text containing
// an @ and returns the decoded fragments. Some senders hide addresses this
// way in data attributes.
func DecodeBase64Blobs(text string, stats Stats) []string {
	var out []string
	for _, tok := range rxBase64Token.FindAllString(text, -1) {
		raw, err := base64.StdEncoding.DecodeString(tok)
		if err != nil {
			continue
		}
		decoded := string(raw)
		if !strings.Contains(decoded, "@") {
			continue
		}
		out = append(out, decoded)
		if stats != nil {
			stats["base64_decoded"]++
		}
	}
	return out
}
