package emailaddr

import (
	"regexp"
	"strings"
)

// Shared departmental mailbox cues, English and Russian transliterations.
var roleKeywords = map[string]struct{}{
	"info": {}, "kontakt": {}, "contact": {}, "service": {}, "support": {},
	"help": {}, "sales": {}, "office": {}, "press": {}, "pressa": {},
	"editor": {}, "editors": {}, "editorial": {}, "journals": {}, "journal": {},
	"admissions": {}, "career": {}, "hr": {}, "department": {}, "dean": {},
	"reception": {}, "priem": {}, "otdel": {}, "kafedra": {}, "dekanat": {},
	"spravka": {}, "redak": {}, "rekto": {}, "uchsec": {}, "magistr": {},
	"bakalavr": {}, "aspirant": {}, "nauka": {}, "kantsel": {}, "public": {},
	"ojs": {}, "mailer": {}, "mail": {}, "postmaster": {}, "webmaster": {},
}

var rxRoleLocal = regexp.MustCompile(`(?i)^(?:no[-_.]?reply|do[-_.]?not[-_.]?reply|postmaster|webmaster|mailer(?:[-_.]?daemon)?|mailbot|bounce)$`)

var rxLocalSplit = regexp.MustCompile(`[._+\-]`)

// IsRoleLike reports whether the address looks like a shared mailbox
// (info@, support@, no-reply@ and friends) rather than a person.
func IsRoleLike(addr string) bool {
	at := strings.LastIndex(addr, "@")
	if at <= 0 {
		return false
	}
	local := strings.ToLower(strings.TrimSpace(addr[:at]))
	if local == "" {
		return false
	}
	if rxRoleLocal.MatchString(local) {
		return true
	}
	for _, tok := range rxLocalSplit.Split(local, -1) {
		tok = strings.Trim(tok, "-_.")
		if tok == "" {
			continue
		}
		if _, ok := roleKeywords[tok]; ok {
			return true
		}
	}
	return false
}
