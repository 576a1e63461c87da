// Package extract turns uploaded bytes into plain text.
//
// Extraction is total: malformed or unsupported input degrades to a lossy text
// decode instead of failing, so a bad upload can never abort the pipeline.
package extract

import (
	"strings"
)

// Format is the closed set of document formats recognised by extension.
type Format int

const (
	FormatUnknown Format = iota
	FormatText
	FormatHTML
	FormatPDF
)

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatHTML:
		return "html"
	case FormatPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

// Extension returns the lowercase text after the last '.' in filename, or "" if there is none.
func Extension(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

// FormatOf picks the format for filename by extension.
func FormatOf(filename string) Format {
	switch Extension(filename) {
	case "txt", "md":
		return FormatText
	case "html", "htm":
		return FormatHTML
	case "pdf":
		return FormatPDF
	default:
		return FormatUnknown
	}
}

// Extract returns best-effort plain text for content, dispatching on the filename's extension.
func Extract(filename string, content []byte) string {
	switch FormatOf(filename) {
	case FormatHTML:
		return extractHTML(content)
	case FormatPDF:
		return extractPDF(content)
	case FormatText:
		return decodeText(content)
	default:
		return decodeText(content)
	}
}
