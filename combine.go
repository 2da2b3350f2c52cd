package poster

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// CombinedFilename names the single PDF holding every page of a poster
func CombinedFilename(base string) string {
	return fmt.Sprintf("%s_tiles.pdf", base)
}

// CombinePDFs merges single page PDFs, in order, into one document at
// `out` so the whole poster can be sent to a printer at once.
func CombinePDFs(files []string, out string) error {
	if len(files) == 0 {
		return ioError("combine pdfs", out, fmt.Errorf("no pages to combine"))
	}

	readers := make([]io.ReadSeeker, 0, len(files))
	for _, fname := range files {
		f, err := os.Open(fname)
		if err != nil {
			return ioError("combine pdfs", fname, err)
		}
		defer f.Close()
		readers = append(readers, f)
	}

	var buff bytes.Buffer
	if err := pdfapi.MergeRaw(readers, &buff, false, model.NewDefaultConfiguration()); err != nil {
		return ioError("combine pdfs", out, err)
	}
	if err := ioutil.WriteFile(out, buff.Bytes(), 0644); err != nil {
		return ioError("write combined pdf", out, err)
	}

	log().Debug("combined pdfs", "pages", len(files), "path", out)
	return nil
}
