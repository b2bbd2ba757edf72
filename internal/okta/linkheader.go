// linkheader.go — разбор заголовка Link (RFC 8288) для курсорной пагинации Okta.
package okta

import (
	"net/url"
	"regexp"
	"strings"
)

// nextCursorRe находит параметр after внутри URL с rel="next".
// <[^>]*> не выходит за границу одной ссылки, поэтому after из rel="self" не захватывается.
var nextCursorRe = regexp.MustCompile(`<[^>]*[?&]after=([^&>#]+)[^>]*>\s*;\s*rel="?next"?`)

// nextRelRe проверяет наличие ссылки с rel="next".
var nextRelRe = regexp.MustCompile(`;\s*rel="?next"?`)

// HasNextLink сообщает, содержит ли заголовок ссылку на следующую страницу.
func HasNextLink(linkHeader string) bool {
	return nextRelRe.MatchString(linkHeader)
}

// NextCursor извлекает URL-декодированное значение after из ссылки rel="next".
// Возвращает false, если заголовок пуст, ссылки next нет или в ней нет after.
// Если значение не декодируется, возвращается как есть.
func NextCursor(linkHeader string) (string, bool) {
	if strings.TrimSpace(linkHeader) == "" {
		return "", false
	}

	m := nextCursorRe.FindStringSubmatch(linkHeader)
	if m == nil {
		return "", false
	}

	cursor, err := url.PathUnescape(m[1])
	if err != nil {
		return m[1], true
	}
	return cursor, true
}
