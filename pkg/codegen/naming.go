package codegen

import (
	"strings"
	"unicode"
)

// Ident sanitizes a description name into an exported Go identifier,
// keeping the original casing. Hardware names are usually already
// identifier-shaped ("CR", "SPE", "UART_PARITY"); anything else loses
// its invalid runes.
func Ident(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || r == '_':
			b.WriteRune(r)
		case unicode.IsDigit(r):
			if b.Len() == 0 {
				b.WriteByte('X')
			}
			b.WriteRune(r)
		}
	}
	s := strings.TrimLeft(b.String(), "_")
	if s == "" {
		return "X"
	}
	if r := rune(s[0]); unicode.IsLower(r) {
		s = strings.ToUpper(s[:1]) + s[1:]
	}
	return s
}

// PascalCase converts a description name to PascalCase, splitting on
// underscores, dashes and spaces: "UART_PARITY" becomes "UartParity".
// Used for enum type and constant names, where the SCREAMING_SNAKE
// spelling of the description would read as one giant initialism.
func PascalCase(name string) string {
	var b strings.Builder
	for _, tok := range splitName(name) {
		b.WriteString(strings.ToUpper(tok[:1]))
		b.WriteString(strings.ToLower(tok[1:]))
	}
	return Ident(b.String())
}

// PackageName derives a Go package (and directory) name: lower case,
// letters and digits only. "SPI1" becomes "spi1".
func PackageName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return "x"
	}
	if s[0] >= '0' && s[0] <= '9' {
		s = "p" + s
	}
	return s
}

// LinkName derives the canonical upper case linkage token used for the
// mmap base constants ("MYDEV_SPI1_BASE") and the linkmap artifact.
func LinkName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' {
			b.WriteRune(r)
		}
	}
	s := strings.Trim(b.String(), "_")
	if s == "" {
		return "X"
	}
	return s
}

func splitName(name string) []string {
	var toks []string
	var cur strings.Builder
	for _, r := range name {
		if r == '_' || r == '-' || r == ' ' {
			if cur.Len() > 0 {
				toks = append(toks, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		toks = append(toks, cur.String())
	}
	return toks
}
