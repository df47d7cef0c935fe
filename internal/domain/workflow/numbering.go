package workflow

import (
	"fmt"
	"time"
)

const documentNumberPrefix = "DOC"

// FormatDocumentNumber builds a document number of the form DOC/<year>/<seq>
// with seq zero-padded to three digits
func FormatDocumentNumber(year, seq int) string {
	return fmt.Sprintf("%s/%d/%03d", documentNumberPrefix, year, seq)
}

// NextDocumentNumber returns the number for a new document given how many exist already
func NextDocumentNumber(now time.Time, existing int) string {
	return FormatDocumentNumber(now.Year(), existing+1)
}
