package emailaddr

import "strings"

// knownTLDs covers the generic TLDs plus the country codes that actually
// show up in the documents we process. Unknown TLDs send a candidate to
// quarantine instead of the send list.
var knownTLDs = map[string]struct{}{
	// generic
	"com": {}, "org": {}, "net": {}, "edu": {}, "gov": {}, "int": {}, "mil": {},
	"info": {}, "biz": {}, "name": {}, "pro": {}, "museum": {}, "aero": {},
	"coop": {}, "travel": {}, "jobs": {}, "mobi": {}, "tel": {}, "asia": {},
	"cat": {}, "xyz": {}, "online": {}, "site": {}, "store": {}, "tech": {},
	"app": {}, "dev": {}, "io": {}, "me": {}, "co": {}, "tv": {}, "cc": {},
	"email": {}, "club": {}, "space": {}, "website": {}, "agency": {},
	"academy": {}, "science": {}, "education": {}, "institute": {},
	"university": {}, "school": {}, "press": {}, "media": {}, "news": {},
	// country codes
	"ru": {}, "su": {}, "by": {}, "ua": {}, "kz": {}, "uz": {}, "kg": {},
	"tj": {}, "am": {}, "az": {}, "ge": {}, "md": {}, "ee": {}, "lv": {},
	"lt": {}, "pl": {}, "cz": {}, "sk": {}, "de": {}, "at": {}, "ch": {},
	"fr": {}, "it": {}, "es": {}, "pt": {}, "nl": {}, "be": {}, "lu": {},
	"uk": {}, "ie": {}, "fi": {}, "se": {}, "no": {}, "dk": {}, "is": {},
	"gr": {}, "tr": {}, "bg": {}, "ro": {}, "rs": {}, "hr": {}, "si": {},
	"hu": {}, "cn": {}, "jp": {}, "kr": {}, "in": {}, "il": {}, "ir": {},
	"sa": {}, "ae": {}, "eg": {}, "za": {}, "us": {}, "ca": {}, "mx": {},
	"br": {}, "ar": {}, "cl": {}, "au": {}, "nz": {}, "sg": {}, "hk": {},
	"tw": {}, "th": {}, "vn": {}, "my": {}, "id": {}, "ph": {}, "mn": {},
	// IDN ccTLDs seen after punycode
	"xn--p1ai": {}, // .рф
}

// KnownTLD reports whether tld (without the leading dot) is recognized.
func KnownTLD(tld string) bool {
	_, ok := knownTLDs[strings.ToLower(strings.TrimPrefix(tld, "."))]
	return ok
}

// TLDOf returns the final label of a normalized domain, or "".
func TLDOf(domain string) string {
	i := strings.LastIndexByte(domain, '.')
	if i < 0 || i == len(domain)-1 {
		return ""
	}
	return domain[i+1:]
}
