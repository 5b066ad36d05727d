// Package emailaddr normalizes and validates e-mail addresses so that
// semantically identical spellings map to one canonical key used for
// deduplication, cooldown lookups and blocklist membership.
package emailaddr

import (
	"regexp"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/text/unicode/norm"
)

// Cyrillic homoglyphs that routinely leak into addresses copied out of
// Russian-language documents.
var cyrToLatin = map[rune]rune{
	'а': 'a', 'е': 'e', 'о': 'o', 'р': 'p', 'с': 'c', 'х': 'x',
	'А': 'A', 'Е': 'E', 'О': 'O', 'Р': 'P', 'С': 'C', 'Х': 'X',
}

var emailLikeRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// EmailRe matches a full candidate address.
var EmailRe = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// CleanText folds a string into a form safe for address extraction: NFKC,
// homoglyphs to Latin, invisible and BiDi characters removed, exotic spaces,
// dashes, apostrophes and fullwidth signs mapped to ASCII.
func CleanText(s string) string {
	s = norm.NFKC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if l, ok := cyrToLatin[r]; ok {
			b.WriteRune(l)
			continue
		}
		switch {
		case r == ' ' || (r >= ' ' && r <= ' ') || r == ' ' || r == ' ' || r == '　' || r == ' ':
			b.WriteRune(' ')
		case r == '­' || (r >= '​' && r <= '‏') ||
			(r >= '‪' && r <= '‮') || r == ' ' || r == ' ' ||
			(r >= '⁠' && r <= '⁯') || r == '\uFEFF' || r == '᠎':
			// drop invisibles; losing these silently would otherwise eat
			// the first letter of an address glued to them
		case r == '‐' || r == '‑' || r == '‒' || r == '–' ||
			r == '—' || r == '―' || r == '−' || r == '⁃' ||
			r == '﹣' || r == '－':
			b.WriteRune('-')
		case r == '‘' || r == '’' || r == '′' || r == '＇':
			b.WriteRune('\'')
		case r == '＠':
			b.WriteRune('@')
		case r == '．':
			b.WriteRune('.')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeDomain lowercases and punycode-encodes a domain for comparison.
func NormalizeDomain(domain string) string {
	raw := strings.Trim(strings.TrimSpace(norm.NFKC.String(domain)), ".")
	if raw == "" {
		return ""
	}
	folded := strings.ToLower(raw)
	ascii, err := idna.Lookup.ToASCII(folded)
	if err != nil {
		// best effort: strip non-ASCII and keep going
		var b strings.Builder
		for _, r := range folded {
			if r < 128 {
				b.WriteRune(r)
			}
		}
		ascii = b.String()
	}
	return strings.ToLower(ascii)
}

func canonicalize(addr string) string {
	at := strings.LastIndexByte(addr, '@')
	local, domain := addr[:at], NormalizeDomain(addr[at+1:])
	if domain == "gmail.com" || domain == "googlemail.com" {
		domain = "gmail.com"
		if plus := strings.IndexByte(local, '+'); plus >= 0 {
			local = local[:plus]
		}
		local = strings.ReplaceAll(local, ".", "")
	}
	return strings.ToLower(local) + "@" + domain
}

// CanonicalKey maps an address to its canonical identity: cleaned text,
// punycode lowercase domain, Gmail dot/plus-tag rules applied. Input without
// an @ is just lowercased.
func CanonicalKey(s string) string {
	s = strings.Trim(strings.TrimSpace(CleanText(s)), "'\"")
	if m := emailLikeRe.FindString(s); m != "" {
		return canonicalize(m)
	}
	if !strings.Contains(s, "@") {
		return strings.ToLower(s)
	}
	return canonicalize(s)
}

var labelRe = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// IsValidDomain reports whether the domain is syntactically valid and ends
// in a known TLD.
func IsValidDomain(domain string) bool {
	ascii := NormalizeDomain(domain)
	if ascii == "" || len(ascii) > 253 {
		return false
	}
	labels := strings.Split(ascii, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if len(l) < 1 || len(l) > 63 {
			return false
		}
		if l[0] == '-' || l[len(l)-1] == '-' {
			return false
		}
		if !labelRe.MatchString(l) {
			return false
		}
	}
	return KnownTLD(labels[len(labels)-1])
}

// IsEmail reports whether s looks like a complete address with a valid domain.
func IsEmail(s string) bool {
	if !EmailRe.MatchString(s) {
		return false
	}
	return IsValidDomain(s[strings.LastIndexByte(s, '@')+1:])
}

// NumericLocal reports whether the local part is digits only. Such hits are
// usually phone fragments or footnote numbers, not addresses.
func NumericLocal(addr string) bool {
	at := strings.IndexByte(addr, '@')
	if at <= 0 {
		return false
	}
	for _, r := range addr[:at] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
