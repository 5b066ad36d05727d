package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"telegram-email-bot/internal/domain"
)

// Template is the HTML letter sent to a group. Body may contain
// {{placeholder}} markers which must all be resolvable at render time.
type Template struct {
	GroupCode string
	Subject   string
	BodyHTML  string
	UpdatedAt time.Time
}

func (t *Template) IsZero() bool { return t == nil || t.GroupCode == "" }

func NewTemplate(groupCode, subject, bodyHTML string) (*Template, error) {
	if groupCode == "" || subject == "" || bodyHTML == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Template{
		GroupCode: groupCode,
		Subject:   subject,
		BodyHTML:  bodyHTML,
		UpdatedAt: time.Now(),
	}, nil
}

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// RenderError reports placeholders the caller did not supply values for.
type RenderError struct {
	Missing []string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("template render: missing placeholders: %s", strings.Join(e.Missing, ", "))
}

// Render substitutes placeholders in the body. All markers must be covered
// by vars; any leftover aborts the whole campaign rather than sending a
// letter with a visible {{hole}}.
func (t *Template) Render(vars map[string]string) (string, error) {
	var missing []string
	out := placeholderRe.ReplaceAllStringFunc(t.BodyHTML, func(m string) string {
		key := placeholderRe.FindStringSubmatch(m)[1]
		if v, ok := vars[key]; ok {
			return v
		}
		missing = append(missing, key)
		return m
	})
	if len(missing) > 0 {
		return "", &RenderError{Missing: missing}
	}
	return out, nil
}

// Placeholders lists the distinct markers used by the body, in order of
// first appearance.
func (t *Template) Placeholders() []string {
	seen := map[string]struct{}{}
	var keys []string
	for _, m := range placeholderRe.FindAllStringSubmatch(t.BodyHTML, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		keys = append(keys, m[1])
	}
	return keys
}
