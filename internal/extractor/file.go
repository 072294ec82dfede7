// Package extractor turns stored material files into plain text.
//
// Extraction is best-effort by contract: a corrupt, unreadable, or
// unsupported file yields empty text, never an error. Documents that
// produce no text simply end up with no indexed chunks.
package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"lumeni-retrieval/internal/logger"
)

// Extractor produces plain text for a stored file.
type Extractor interface {
	Extract(ctx context.Context, path string) string
}

// File extracts text from local material files, dispatching on extension.
// Supported: .pdf, .docx, .txt, .md.
type File struct{}

// NewFile returns a file-based extractor.
func NewFile() *File { return &File{} }

// Extract reads the file at path and returns its plain text, or empty text
// when the file is missing, unreadable, or of an unsupported type.
func (f *File) Extract(_ context.Context, path string) string {
	if _, err := os.Stat(path); err != nil {
		logger.Warn("extractor: cannot stat %s: %v", path, err)
		return ""
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return pdfText(path)
	case ".docx":
		return docxText(path)
	case ".txt", ".md":
		return plainText(path)
	default:
		logger.Debug("extractor: unsupported file type %s", path)
		return ""
	}
}

func plainText(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("extractor: read %s: %v", path, err)
		return ""
	}
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}

func pdfText(path string) (text string) {
	// The pdf package panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("extractor: pdf %s: %v", path, r)
			text = ""
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		logger.Warn("extractor: open pdf %s: %v", path, err)
		return ""
	}
	defer f.Close()

	body, err := reader.GetPlainText()
	if err != nil {
		logger.Warn("extractor: pdf text %s: %v", path, err)
		return ""
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		logger.Warn("extractor: pdf read %s: %v", path, err)
		return ""
	}
	return buf.String()
}

// wordDocument mirrors the parts of word/document.xml we read.
type wordDocument struct {
	Body struct {
		Paragraphs []wordParagraph `xml:"p"`
	} `xml:"body"`
}

type wordParagraph struct {
	Runs []struct {
		Text []string `xml:"t"`
	} `xml:"r"`
}

func docxText(path string) string {
	archive, err := zip.OpenReader(path)
	if err != nil {
		logger.Warn("extractor: open docx %s: %v", path, err)
		return ""
	}
	defer archive.Close()

	for _, entry := range archive.File {
		if entry.Name != "word/document.xml" {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return ""
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return ""
		}
		return wordMLText(content)
	}
	return ""
}

func wordMLText(content []byte) string {
	var doc wordDocument
	if err := xml.Unmarshal(content, &doc); err != nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range doc.Body.Paragraphs {
		for _, r := range p.Runs {
			for _, t := range r.Text {
				sb.WriteString(t)
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
