package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// fromDOCX reads word/document.xml out of the docx container and collects
// the text runs. No third-party docx library is involved: the format is a
// zip of XML and we only need the <w:t> contents and paragraph breaks.
func fromDOCX(name string, data []byte, opt Options) (Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("open docx %s: %w", name, err)
	}
	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return Result{}, fmt.Errorf("docx %s: word/document.xml not found", name)
	}
	rc, err := doc.Open()
	if err != nil {
		return Result{}, fmt.Errorf("docx %s: %w", name, err)
	}
	defer rc.Close()

	text, err := docxText(rc)
	if err != nil {
		return Result{}, fmt.Errorf("docx %s: %w", name, err)
	}
	return FromText(text, name, opt), nil
}

func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}
