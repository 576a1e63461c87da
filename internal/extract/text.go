package extract

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeText reads content as UTF-8, honouring a UTF-8/UTF-16 BOM when present.
// Invalid sequences become U+FFFD.
func decodeText(content []byte) string {
	if len(content) == 0 {
		return ""
	}
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, content)
	if err != nil {
		return strings.ToValidUTF8(string(content), "�")
	}
	return string(out)
}
