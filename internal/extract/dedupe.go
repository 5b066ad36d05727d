package extract

import (
	"strconv"
	"strings"
	"unicode"
)

// splitRef breaks "file|page" into its base and page number. Refs without a
// numeric tail get page 0.
func splitRef(ref string) (string, int) {
	i := strings.LastIndexByte(ref, '|')
	if i < 0 {
		return ref, 0
	}
	page, err := strconv.Atoi(ref[i+1:])
	if err != nil {
		return ref, 0
	}
	return ref[:i], page
}

func isSuperscript(r rune) bool {
	switch r {
	case '¹', '²', '³':
		return true
	}
	return r >= '⁰' && r <= '⁹'
}

func lastVisible(s string) rune {
	rs := []rune(s)
	for i := len(rs) - 1; i >= 0; i-- {
		if !unicode.IsSpace(rs[i]) {
			return rs[i]
		}
	}
	return 0
}

// MergeFootnoteVariants collapses footnote-trimmed variants of the same
// address within one source: when a hit equals another hit plus exactly one
// leading alphanumeric (or superscript) character, the domains match, the
// pages are within radius and a digit precedes either occurrence, the pair
// is a footnote artifact and the trimmed variant is dropped.
func MergeFootnoteVariants(hits []Hit, radiusPages int, stats Stats) []Hit {
	type ref struct {
		idx  int
		page int
	}
	grouped := map[string][]ref{}
	for i, h := range hits {
		base, page := splitRef(h.SourceRef)
		grouped[base] = append(grouped[base], ref{idx: i, page: page})
	}

	removed := map[int]struct{}{}
	for _, lst := range grouped {
		for _, long := range lst {
			if _, gone := removed[long.idx]; gone {
				continue
			}
			locLong, domLong, ok := splitAddr(hits[long.idx].Email)
			if !ok {
				continue
			}
			for _, short := range lst {
				if short.idx == long.idx {
					continue
				}
				if _, gone := removed[short.idx]; gone {
					continue
				}
				if abs(long.page-short.page) > radiusPages {
					continue
				}
				locShort, domShort, ok := splitAddr(hits[short.idx].Email)
				if !ok || domLong != domShort {
					continue
				}
				if len(locLong) != len(locShort)+1 || !strings.HasSuffix(locLong, locShort) {
					continue
				}
				added := rune(locLong[0])
				if !unicode.IsLetter(added) && !unicode.IsDigit(added) && !isSuperscript(added) {
					continue
				}
				prevShort := lastVisible(hits[short.idx].Pre)
				prevLong := lastVisible(hits[long.idx].Pre)
				digitish := func(r rune) bool { return unicode.IsDigit(r) || isSuperscript(r) }
				if !(prevShort != 0 && digitish(prevShort)) && !(prevLong != 0 && digitish(prevLong)) {
					continue
				}
				removed[short.idx] = struct{}{}
				if stats != nil {
					stats["footnote_merged"]++
				}
			}
		}
	}

	if len(removed) == 0 {
		return hits
	}
	out := make([]Hit, 0, len(hits)-len(removed))
	for i, h := range hits {
		if _, gone := removed[i]; gone {
			continue
		}
		out = append(out, h)
	}
	return out
}

func splitAddr(addr string) (local, domain string, ok bool) {
	i := strings.LastIndexByte(addr, '@')
	if i <= 0 || i == len(addr)-1 {
		return "", "", false
	}
	return addr[:i], addr[i+1:], true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
