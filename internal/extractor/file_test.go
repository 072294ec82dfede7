package extractor

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFile_Extract_MissingFile(t *testing.T) {
	f := NewFile()
	if got := f.Extract(context.Background(), filepath.Join(t.TempDir(), "nope.pdf")); got != "" {
		t.Errorf("expected empty text for missing file, got %q", got)
	}
}

func TestFile_Extract_UnsupportedType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slides.pptx")
	if err := os.WriteFile(path, []byte("not really a pptx"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := NewFile()
	if got := f.Extract(context.Background(), path); got != "" {
		t.Errorf("expected empty text for unsupported type, got %q", got)
	}
}

func TestFile_Extract_PlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("lecture one\nlecture two"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := NewFile()
	got := f.Extract(context.Background(), path)
	if got != "lecture one\nlecture two" {
		t.Errorf("unexpected text: %q", got)
	}
}

func TestFile_Extract_InvalidUTF8Replaced(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.txt")
	if err := os.WriteFile(path, []byte{'o', 'k', 0xff, 'o', 'k'}, 0o644); err != nil {
		t.Fatal(err)
	}
	f := NewFile()
	got := f.Extract(context.Background(), path)
	if !strings.HasPrefix(got, "ok") || !strings.HasSuffix(got, "ok") {
		t.Errorf("expected readable text around replacement, got %q", got)
	}
}

func TestFile_Extract_DOCX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "syllabus.docx")
	writeDOCX(t, path, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Week one: introduction.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Week two: </w:t></w:r><w:r><w:t>recursion.</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	f := NewFile()
	got := f.Extract(context.Background(), path)
	if !strings.Contains(got, "Week one: introduction.") {
		t.Errorf("missing first paragraph in %q", got)
	}
	if !strings.Contains(got, "Week two: recursion.") {
		t.Errorf("runs should join within a paragraph, got %q", got)
	}
}

func TestFile_Extract_CorruptDOCX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corrupt.docx")
	if err := os.WriteFile(path, []byte("this is not a zip archive"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := NewFile()
	if got := f.Extract(context.Background(), path); got != "" {
		t.Errorf("expected empty text for corrupt docx, got %q", got)
	}
}

func TestFile_Extract_CorruptPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corrupt.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := NewFile()
	if got := f.Extract(context.Background(), path); got != "" {
		t.Errorf("expected empty text for corrupt pdf, got %q", got)
	}
}

func writeDOCX(t *testing.T, path, documentXML string) {
	t.Helper()
	out, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	entry, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := entry.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}
