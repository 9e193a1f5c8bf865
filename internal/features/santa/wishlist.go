// Package santa — wishlist.go: обработка текста вишлиста.
package santa

import "regexp"

var urlRegex = regexp.MustCompile(`https?://\S+`)

// WrapWishlistLinks оборачивает голые ссылки в markdown-вид [url](url),
// чтобы мини-апп рендерил их кликабельными.
// Повторный вызов на уже обернутом тексте обернет ссылку еще раз —
// известный косметический случай, не защищаемся.
func WrapWishlistLinks(text string) string {
	if text == "" {
		return ""
	}
	return urlRegex.ReplaceAllString(text, "[$0]($0)")
}
