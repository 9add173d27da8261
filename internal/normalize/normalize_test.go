package normalize

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		path   string
		format Format
	}{
		{"doc.docx", FormatDocx},
		{"doc.odt", FormatODT},
		{"doc.html", FormatHTML},
		{"doc.htm", FormatHTML},
		{"doc.txt", FormatText},
		{"doc.rtf", FormatRTF},
		{"doc.md", FormatMarkdown},
		{"doc.markdown", FormatMarkdown},
		{"doc.mdx", FormatMDX},
	}
	for _, tt := range tests {
		f, err := Detect(tt.path)
		if err != nil {
			t.Errorf("Detect(%q): %v", tt.path, err)
			continue
		}
		if f != tt.format {
			t.Errorf("Detect(%q) = %q, want %q", tt.path, f, tt.format)
		}
	}

	if _, err := Detect("image.png"); !errors.Is(err, ErrBinaryFormat) {
		t.Errorf("expected ErrBinaryFormat, got %v", err)
	}
	if _, err := Detect("file.xyz"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestTextToMarkdown_LabelHeading(t *testing.T) {
	// WHAT: "Label:" followed by prose becomes a level-2 heading with the
	// prose as a separate block.
	got := textToMarkdown("Label:\n\nSome prose\n")
	if !strings.Contains(got, "## Label\n") {
		t.Errorf("expected '## Label' heading, got %q", got)
	}
	if !strings.Contains(got, "\nSome prose") {
		t.Errorf("prose lost: %q", got)
	}
}

func TestTextToMarkdown_IndentedCode(t *testing.T) {
	input := "Example:\n\n    func main() {\n    }\n\nDone here.\n"
	got := textToMarkdown(input)
	if strings.Count(got, "```") != 2 {
		t.Fatalf("expected one fenced block, got %q", got)
	}
	if !strings.Contains(got, "func main() {") {
		t.Errorf("code content lost: %q", got)
	}
	if strings.Contains(got, "    func") {
		t.Errorf("indentation should be stripped inside fence: %q", got)
	}
}

func TestTextToMarkdown_BulletNormalization(t *testing.T) {
	got := textToMarkdown("* first\n• second\n· third\n")
	for _, want := range []string{"- first", "- second", "- third"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}
	if strings.Contains(got, "*") || strings.Contains(got, "•") {
		t.Errorf("bullet glyphs left unnormalized: %q", got)
	}
}

func TestTextToMarkdown_Empty(t *testing.T) {
	if got := textToMarkdown(""); got != "" {
		t.Errorf("empty input should yield empty body, got %q", got)
	}
}

func TestRTFToText(t *testing.T) {
	rtf := `{\rtf1\ansi\deff0 {\fonttbl{\f0 Times;}}\f0\fs24 Hello World\par Second paragraph\par}`
	got := rtfToText(rtf)
	if !strings.Contains(got, "Hello World") {
		t.Errorf("text lost: %q", got)
	}
	if !strings.Contains(got, "Second paragraph") {
		t.Errorf("paragraph lost: %q", got)
	}
	if strings.ContainsAny(got, `{}\`) {
		t.Errorf("control characters left: %q", got)
	}
}

func TestNormalize_HTML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	src := `<!DOCTYPE html>
<html><head><title>Page Title</title></head>
<body>
<h1>Main Heading</h1>
<p>A paragraph of body text that should survive conversion.</p>
<ul><li>alpha</li><li>beta</li></ul>
</body></html>`
	os.WriteFile(path, []byte(src), 0o644)

	n := New(Config{})
	doc, err := n.Normalize(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "Page Title" {
		t.Errorf("title = %q", doc.Title)
	}
	if !strings.Contains(doc.Body, "# Main Heading") {
		t.Errorf("heading lost: %q", doc.Body)
	}
	if !strings.Contains(doc.Body, "- alpha") {
		t.Errorf("list bullets should use '-': %q", doc.Body)
	}
}

func TestStripHTML_Fallback(t *testing.T) {
	src := `<html><body>
<h2>Kept Heading</h2>
<p>Visible paragraph.</p>
<div style="display:none">hidden payload</div>
<script>var x = 1;</script>
</body></html>`
	got := stripHTML(src)
	if !strings.Contains(got, "## Kept Heading") {
		t.Errorf("heading lost: %q", got)
	}
	if !strings.Contains(got, "Visible paragraph.") {
		t.Errorf("paragraph lost: %q", got)
	}
	if strings.Contains(got, "hidden payload") {
		t.Errorf("display:none text should be excluded: %q", got)
	}
	if strings.Contains(got, "var x") {
		t.Errorf("script content should be excluded: %q", got)
	}
}

func TestNormalize_Docx(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.docx")
	writeZip(t, path, "word/document.xml", `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Test Title</w:t></w:r></w:p>
<w:p><w:r><w:t>This is body text.</w:t></w:r></w:p>
<w:p><w:pPr><w:pStyle w:val="Heading2"/></w:pPr><w:r><w:t>Section Two</w:t></w:r></w:p>
</w:body>
</w:document>`)

	n := New(Config{})
	doc, err := n.Normalize(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "Test Title" {
		t.Errorf("title = %q", doc.Title)
	}
	if !strings.Contains(doc.Body, "# Test Title") {
		t.Errorf("h1 lost: %q", doc.Body)
	}
	if !strings.Contains(doc.Body, "## Section Two") {
		t.Errorf("h2 lost: %q", doc.Body)
	}
	if !strings.Contains(doc.Body, "This is body text.") {
		t.Errorf("paragraph lost: %q", doc.Body)
	}
}

func TestNormalize_ODT(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.odt")
	writeZip(t, path, "content.xml", `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"
  xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0">
<office:body>
<office:text>
<text:h text:outline-level="1">ODT Title</text:h>
<text:p>First paragraph.</text:p>
<text:h text:outline-level="2">Sub Heading</text:h>
</office:text>
</office:body>
</office:document-content>`)

	n := New(Config{})
	doc, err := n.Normalize(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "ODT Title" {
		t.Errorf("title = %q", doc.Title)
	}
	if !strings.Contains(doc.Body, "## Sub Heading") {
		t.Errorf("h2 lost: %q", doc.Body)
	}
}

func TestNormalize_DocxXMLBomb(t *testing.T) {
	// WHAT: Deeply nested XML returns a depth error instead of hanging.
	// WHY: XML bomb defense for attacker-supplied archives.
	dir := t.TempDir()
	path := filepath.Join(dir, "bomb.docx")

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for i := 0; i < 300; i++ {
		b.WriteString("<w:p>")
	}
	b.WriteString("deep")
	for i := 0; i < 300; i++ {
		b.WriteString("</w:p>")
	}
	b.WriteString("</w:body></w:document>")
	writeZip(t, path, "word/document.xml", b.String())

	n := New(Config{})
	_, err := n.Normalize(context.Background(), path)
	if err == nil {
		t.Fatal("expected error for deeply nested XML")
	}
	if !strings.Contains(err.Error(), "nesting depth") {
		t.Errorf("expected nesting depth error, got: %v", err)
	}
}

func TestNormalize_MarkdownPassthrough(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	src := "---\ntitle: Kept\n---\n\n# Heading\n\nBody.\n"
	os.WriteFile(path, []byte(src), 0o644)

	n := New(Config{})
	doc, err := n.Normalize(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Body != src {
		t.Errorf("markdown must pass through unchanged")
	}
}

func TestNormalize_InvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.txt")
	os.WriteFile(path, []byte{0xff, 0xfe, 0x41}, 0o644)

	n := New(Config{})
	_, err := n.Normalize(context.Background(), path)
	if !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}

func TestNormalize_EmptyInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	os.WriteFile(path, nil, 0o644)

	n := New(Config{})
	doc, err := n.Normalize(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Body != "" {
		t.Errorf("empty input should yield empty body, got %q", doc.Body)
	}
}

func writeZip(t *testing.T, path, entry, content string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	fw, _ := w.Create(entry)
	fw.Write([]byte(content))
	w.Close()
	f.Close()
}
