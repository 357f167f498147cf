package web

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SecureFilename приводит имя загруженного файла к безопасному виду:
// только ASCII, разделители путей превращаются в '_',
// остаются символы [A-Za-z0-9_.-], точки и '_' по краям срезаются.
func SecureFilename(name string) string {
	name = norm.NFKD.String(name)

	var ascii strings.Builder
	for _, r := range name {
		if r <= unicode.MaxASCII {
			ascii.WriteRune(r)
		}
	}
	name = ascii.String()

	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")

	var b strings.Builder
	for _, r := range name {
		if r == '_' || r == '.' || r == '-' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "._")
}

// bundleID имя бандла по безопасному имени файла: без расширения.
func bundleID(safeName string) string {
	return strings.TrimSuffix(safeName, filepath.Ext(safeName))
}

// allowedFile проверяет расширение по списку (без учёта регистра).
func allowedFile(name string, allowed []string) bool {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return false
	}
	ext := strings.ToLower(name[idx+1:])
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

// validElement одиночный элемент пути без переходов наверх.
func validElement(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, "/\\\x00")
}
