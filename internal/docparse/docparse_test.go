package docparse

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func slideXML(title string, body ...string) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0"?><p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"><p:cSld><p:spTree>`)
	if title != "" {
		fmt.Fprintf(&sb, `<p:sp><p:nvSpPr><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr><p:txBody><a:p><a:r><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp>`, title)
	}
	if len(body) > 0 {
		sb.WriteString(`<p:sp><p:nvSpPr><p:nvPr><p:ph idx="1"/></p:nvPr></p:nvSpPr><p:txBody>`)
		for _, line := range body {
			fmt.Fprintf(&sb, `<a:p><a:r><a:t>%s</a:t></a:r></a:p>`, line)
		}
		sb.WriteString(`</p:txBody></p:sp>`)
	}
	sb.WriteString(`</p:spTree></p:cSld></p:sld>`)
	return sb.String()
}

func docxXML(paragraphs ...string) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		fmt.Fprintf(&sb, `<w:p><w:r><w:t>%s</w:t></w:r></w:p>`, p)
	}
	sb.WriteString(`</w:body></w:document>`)
	return sb.String()
}

func TestParsePPTXSlideOrderAndTitle(t *testing.T) {
	data := buildZip(t, map[string]string{
		"ppt/slides/slide10.xml": slideXML("Etching", "RIE is anisotropic"),
		"ppt/slides/slide2.xml":  slideXML("CVD", "Chemical vapor deposition", "Thermal budget"),
		"ppt/slides/slide3.xml":  slideXML(""),
		"ppt/slides/_rels/x.xml": "<r/>",
	})

	chunks, err := Parse("lecture.PPTX", data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("chunks = %d, want 2 (blank slide skipped)", len(chunks))
	}
	want := "제목: CVD\nChemical vapor deposition\nThermal budget"
	if chunks[0].Content != want {
		t.Errorf("content = %q, want %q", chunks[0].Content, want)
	}
	if chunks[0].Type != TypePPTX || chunks[0].Source != "lecture.PPTX" || chunks[0].Page != 1 {
		t.Errorf("unexpected chunk meta %+v", chunks[0])
	}
	if !strings.HasPrefix(chunks[1].Content, "제목: Etching") {
		t.Errorf("slide10 should sort after slide2, got %q", chunks[1].Content)
	}
}

const (
	presentationXML = `<?xml version="1.0"?><p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><p:sldIdLst>%s</p:sldIdLst></p:presentation>`
	slideRelType    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
)

func TestParsePPTXFollowsDeckOrder(t *testing.T) {
	rels := `<?xml version="1.0"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>` +
		`<Relationship Id="rId2" Type="` + slideRelType + `" Target="slides/slide1.xml"/>` +
		`<Relationship Id="rId3" Type="` + slideRelType + `" Target="/ppt/slides/slide2.xml"/>` +
		`</Relationships>`
	data := buildZip(t, map[string]string{
		"ppt/presentation.xml":            fmt.Sprintf(presentationXML, `<p:sldId id="257" r:id="rId3"/><p:sldId id="256" r:id="rId2"/>`),
		"ppt/_rels/presentation.xml.rels": rels,
		"ppt/slides/slide1.xml":           slideXML("Moved down", "a"),
		"ppt/slides/slide2.xml":           slideXML("Shown first", "b"),
	})

	chunks, err := Parse("deck.pptx", data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("chunks = %d", len(chunks))
	}
	if chunks[0].Content != "제목: Shown first\nb" || chunks[0].Page != 1 {
		t.Errorf("first chunk = %+v", chunks[0])
	}
	if chunks[1].Content != "제목: Moved down\na" || chunks[1].Page != 2 {
		t.Errorf("second chunk = %+v", chunks[1])
	}
}

func TestParseCorruptPDF(t *testing.T) {
	data, err := os.ReadFile("testdata/broken_xref.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if chunks, err := Parse("lecture.pdf", data); err == nil || chunks != nil {
		t.Errorf("Parse() = %v, %v; want error", chunks, err)
	}
	if _, err := ExtractText("resume.pdf", data); err == nil {
		t.Error("ExtractText() should fail on a corrupt pdf")
	}
}

func TestParseDOCXChunking(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("wafer ", 300))
	paras := []string{long, "", long, "short tail"}
	data := buildZip(t, map[string]string{"word/document.xml": docxXML(paras...)})

	chunks, err := Parse("notes.docx", data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("chunks = %d, want 2", len(chunks))
	}
	// the third paragraph (index 2) pushes the count past 500 words
	if chunks[0].Page != 2/docxParasPerPage+1 {
		t.Errorf("first page = %d", chunks[0].Page)
	}
	if chunks[1].Content != "short tail" || chunks[1].Page != 2 {
		t.Errorf("remainder chunk = %+v", chunks[1])
	}
}

func TestParseUnsupported(t *testing.T) {
	_, err := Parse("slides.key", []byte("x"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if Supported("a.key") || !Supported("a.Docx") {
		t.Error("Supported() mismatch")
	}
}

func TestExtractText(t *testing.T) {
	got, err := ExtractText("resume.txt", []byte("  Jane Doe\nProcess engineer \n"))
	if err != nil || got != "Jane Doe\nProcess engineer" {
		t.Fatalf("txt: %q %v", got, err)
	}

	data := buildZip(t, map[string]string{"word/document.xml": docxXML("Education", "KAIST, MSE")})
	got, err = ExtractText("statement.docx", data)
	if err != nil || got != "Education\nKAIST, MSE" {
		t.Fatalf("docx: %q %v", got, err)
	}
}

func TestParseBrokenArchive(t *testing.T) {
	if _, err := Parse("bad.docx", []byte("not a zip")); err == nil {
		t.Fatal("expected error for broken docx")
	}
	if _, err := Parse("bad.pdf", []byte("not a pdf")); err == nil {
		t.Fatal("expected error for broken pdf")
	}
}
