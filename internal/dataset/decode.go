package dataset

import "strings"

// utf8BOM is the byte-order mark some authoring tools prepend to UTF-8
// text (the original exports are written utf-8-sig).
const utf8BOM = "\xef\xbb\xbf"

// Decode strips any leading byte-order marks from raw dataset text and
// returns it otherwise unchanged. It is a pure, total function and is
// idempotent: decoding already-clean text is a no-op.
func Decode(text string) string {
	for strings.HasPrefix(text, utf8BOM) {
		text = text[len(utf8BOM):]
	}
	return text
}
