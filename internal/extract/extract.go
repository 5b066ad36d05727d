// Package extract pulls e-mail addresses out of raw text and out of the
// document formats uploaded to the bot: PDF, XLSX, DOCX, CSV/TXT and ZIP
// archives of those.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"telegram-email-bot/internal/emailaddr"
)

// Hit is one extracted address candidate. SourceRef locates it
// ("report.pdf|3" means page 3); Pre keeps a few characters of left context
// for the footnote-merge heuristic.
type Hit struct {
	Email     string
	SourceRef string
	Pre       string
}

// Stats accumulates counters across preprocessing and scanning.
type Stats map[string]int

// Merge adds other's counters into s.
func (s Stats) Merge(other Stats) {
	for k, v := range other {
		s[k] += v
	}
}

// Options tune the extraction pipeline.
type Options struct {
	// AllowNumeric keeps addresses whose local part is digits only.
	AllowNumeric bool
	// QuarantineScore is the minimal candidate score; currently the only
	// scored feature is a recognized TLD, so raising it above 1 drops
	// every candidate.
	QuarantineScore int
	// FootnoteRadiusPages bounds the page distance for footnote-variant
	// merging.
	FootnoteRadiusPages int
	// MaxZipMembers and MaxMemberSize guard against zip bombs.
	MaxZipMembers int
	MaxMemberSize int64
	// ZipWorkers bounds concurrent member parsing inside an archive.
	ZipWorkers int
}

// DefaultOptions mirror the runtime defaults.
func DefaultOptions() Options {
	return Options{
		QuarantineScore:     1,
		FootnoteRadiusPages: 1,
		MaxZipMembers:       200,
		MaxMemberSize:       50 << 20,
		ZipWorkers:          4,
	}
}

// Result is the outcome of extracting one source.
type Result struct {
	Hits  []Hit
	Stats Stats
}

// Emails returns unique canonical addresses in first-seen order.
func (r *Result) Emails() []string {
	seen := make(map[string]struct{}, len(r.Hits))
	var out []string
	for _, h := range r.Hits {
		if _, ok := seen[h.Email]; ok {
			continue
		}
		seen[h.Email] = struct{}{}
		out = append(out, h.Email)
	}
	return out
}

var candidateRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

const preContext = 8

// FromText runs the full pipeline over one text chunk.
func FromText(text, sourceRef string, opt Options) Result {
	stats := Stats{}
	clean := Preprocess(text, stats)

	inputs := []string{clean}
	for _, decoded := range DecodeBase64Blobs(text, stats) {
		inputs = append(inputs, Preprocess(decoded, stats))
	}

	var hits []Hit
	for _, in := range inputs {
		hits = append(hits, scan(in, sourceRef, opt, stats)...)
	}
	hits = MergeFootnoteVariants(hits, opt.FootnoteRadiusPages, stats)
	return Result{Hits: dedupeHits(hits), Stats: stats}
}

func scan(text, sourceRef string, opt Options, stats Stats) []Hit {
	var hits []Hit
	for _, loc := range candidateRe.FindAllStringIndex(text, -1) {
		raw := strings.TrimRight(text[loc[0]:loc[1]], ".-")
		at := strings.LastIndexByte(raw, '@')
		if at <= 0 {
			continue
		}
		local := StripPhonePrefix(raw[:at], stats)
		if local == "" {
			continue
		}
		addr := emailaddr.CanonicalKey(local + raw[at:])
		domain := addr[strings.LastIndexByte(addr, '@')+1:]
		if scoreCandidate(domain) < opt.QuarantineScore {
			stats["invalid_tld"]++
			continue
		}
		if !opt.AllowNumeric && emailaddr.NumericLocal(addr) {
			stats["numeric_dropped"]++
			continue
		}
		pre := ""
		if loc[0] > 0 {
			start := loc[0] - preContext
			if start < 0 {
				start = 0
			}
			pre = text[start:loc[0]]
		}
		hits = append(hits, Hit{Email: addr, SourceRef: sourceRef, Pre: pre})
	}
	return hits
}

// scoreCandidate sums feature weights for one candidate address. A
// recognized TLD is the only feature today; candidates scoring below
// Options.QuarantineScore are dropped instead of returned.
func scoreCandidate(domain string) int {
	score := 0
	if emailaddr.IsValidDomain(domain) {
		score++
	}
	return score
}

func dedupeHits(hits []Hit) []Hit {
	seen := make(map[string]struct{}, len(hits))
	out := hits[:0]
	for _, h := range hits {
		key := h.Email + "|" + h.SourceRef
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, h)
	}
	return out
}

// SamplePreview returns up to k unique addresses for chat previews, sorted
// for stable output.
func SamplePreview(emails []string, k int) []string {
	uniq := make(map[string]struct{}, len(emails))
	var lst []string
	for _, e := range emails {
		if _, ok := uniq[e]; !ok {
			uniq[e] = struct{}{}
			lst = append(lst, e)
		}
	}
	sort.Strings(lst)
	if len(lst) > k {
		lst = lst[:k]
	}
	return lst
}
