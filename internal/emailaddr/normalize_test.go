package emailaddr

import "testing"

func TestCanonicalKey(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases local and domain", "Ivanov@Example.RU", "ivanov@example.ru"},
		{"trims whitespace and quotes", " 'ivanov@example.ru' ", "ivanov@example.ru"},
		{"gmail dots collapse", "iva.nov@gmail.com", "ivanov@gmail.com"},
		{"gmail plus tag dropped", "ivanov+spam@gmail.com", "ivanov@gmail.com"},
		{"googlemail folds to gmail", "ivanov@googlemail.com", "ivanov@gmail.com"},
		{"non-gmail dots survive", "iva.nov@example.ru", "iva.nov@example.ru"},
		{"non-gmail plus survives", "ivanov+tag@example.ru", "ivanov+tag@example.ru"},
		{"cyrillic homoglyphs folded", "ivаnоv@exаmple.ru", "ivanov@example.ru"},
		{"without at just lowercased", "NOT-AN-ADDRESS", "not-an-address"},
		{"address inside noise extracted", "E-mail: ivanov@example.ru (head)", "ivanov@example.ru"},
		{"byte order mark dropped", "\uFEFFivanov@example.ru", "ivanov@example.ru"},
		{"zero-width joiner dropped", "iva\u200dnov@example.ru", "ivanov@example.ru"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanonicalKey(tc.in); got != tc.want {
				t.Errorf("CanonicalKey(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeDomain(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Example.RU", "example.ru"},
		{" example.ru. ", "example.ru"},
		{"пример.рф", "xn--e1afmkfd.xn--p1ai"},
	}
	for _, tc := range cases {
		if got := NormalizeDomain(tc.in); got != tc.want {
			t.Errorf("NormalizeDomain(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsEmail(t *testing.T) {
	valid := []string{
		"ivanov@example.ru",
		"a.b-c_d@sub.example.com",
	}
	invalid := []string{
		"",
		"ivanov",
		"ivanov@",
		"@example.ru",
		"ivanov@example",
		"ivanov@example.invalidzone",
		"ivanov@-bad-.ru",
	}
	for _, s := range valid {
		if !IsEmail(s) {
			t.Errorf("IsEmail(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if IsEmail(s) {
			t.Errorf("IsEmail(%q) = true, want false", s)
		}
	}
}

func TestNumericLocal(t *testing.T) {
	if !NumericLocal("12345@example.ru") {
		t.Error("all-digit local should be numeric")
	}
	if NumericLocal("ivanov2023@example.ru") {
		t.Error("mixed local is not numeric")
	}
	if NumericLocal("no-at-sign") {
		t.Error("input without @ is not numeric")
	}
}
