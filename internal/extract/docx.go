package extract

import (
	"bytes"
	"fmt"

	"code.sajari.com/docconv"
)

// DOCX decodes an OOXML word-processing document. Headers and footers are
// included around the body text.
type DOCX struct{}

func (DOCX) Decode(data []byte) (string, error) {
	text, _, err := docconv.ConvertDocx(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	return text, nil
}
