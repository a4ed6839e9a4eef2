package parser

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/sells-group/orgair-cli/internal/model"
)

var pdfMagic = []byte("%PDF-")

var markupMarkers = []string{"<html", "<!doctype", "<div", "<table", "<sec-document"}

// Detect identifies the source format of a payload. Precedence: filename
// extension, then the %PDF- magic, then markup markers in the first 1000
// bytes. Unrecognized input is never rejected; it defaults to markup,
// the dominant source format.
func Detect(filename string, payload []byte) model.SourceFormat {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".htm", ".html", ".txt":
		return model.FormatMarkup
	case ".pdf":
		return model.FormatPaged
	}

	if bytes.HasPrefix(payload, pdfMagic) {
		return model.FormatPaged
	}

	head := payload
	if len(head) > 1000 {
		head = head[:1000]
	}
	lower := strings.ToLower(string(head))
	for _, marker := range markupMarkers {
		if strings.Contains(lower, marker) {
			return model.FormatMarkup
		}
	}

	return model.FormatMarkup
}
