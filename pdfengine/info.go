package pdfengine

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/drummonds/pdfpanel/viewer"
)

func init() {
	// Keep pdfcpu from creating a config directory in the user's home.
	model.ConfigPath = "disable"
}

// ReadInfo extracts the title, author and page sizes of a PDF.
// Whatever could be read is returned alongside any error.
func ReadInfo(data []byte) (viewer.DocumentInfo, error) {
	var info viewer.DocumentInfo

	dims, err := api.PageDims(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return info, fmt.Errorf("unable to read page dimensions: %w", err)
	}
	for _, d := range dims {
		info.Pages = append(info.Pages, viewer.PageSize{Width: d.Width, Height: d.Height})
	}

	title, author, err := readMetadata(data)
	if err != nil {
		return info, err
	}
	info.Title = title
	info.Author = author
	return info, nil
}

func readMetadata(data []byte) (title, author string, err error) {
	defer func() {
		// ledongthuc/pdf panics on some malformed trailers
		if r := recover(); r != nil {
			err = fmt.Errorf("unable to read metadata: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", "", fmt.Errorf("unable to parse PDF: %w", err)
	}
	docInfo := reader.Trailer().Key("Info")
	return docInfo.Key("Title").Text(), docInfo.Key("Author").Text(), nil
}
