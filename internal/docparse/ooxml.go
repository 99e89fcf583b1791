package docparse

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	drawingNS = "http://schemas.openxmlformats.org/drawingml/2006/main"
	wordNS    = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

	relationshipsNS = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	docxWordsPerChunk  = 500
	docxParasPerPage   = 10
	pptxTitlePrefix    = "제목: "
	maxOOXMLPartLength = 32 << 20
)

var slidePart = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// ParsePPTX emits one chunk per slide in deck order. The title placeholder
// comes first with a "제목: " prefix, followed by the text of every other shape.
func ParsePPTX(r io.ReaderAt, size int64, source string) ([]Chunk, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open pptx failed: %w", err)
	}

	slides, err := deckOrder(zr)
	if err != nil {
		return nil, fmt.Errorf("read pptx slide order failed: %w", err)
	}

	var chunks []Chunk
	for idx, f := range slides {
		shapes, err := readSlideShapes(f)
		if err != nil {
			return nil, fmt.Errorf("read %s failed: %w", f.Name, err)
		}

		var lines []string
		for _, sh := range shapes {
			if sh.title && sh.text != "" {
				lines = append(lines, pptxTitlePrefix+sh.text)
			}
		}
		for _, sh := range shapes {
			if !sh.title && sh.text != "" {
				lines = append(lines, sh.text)
			}
		}
		if len(lines) == 0 {
			continue
		}
		chunks = append(chunks, Chunk{
			Content: strings.Join(lines, "\n"),
			Source:  source,
			Page:    idx + 1,
			Type:    TypePPTX,
		})
	}
	return chunks, nil
}

// deckOrder lists slide parts the way the presentation shows them: the
// sldIdLst of ppt/presentation.xml resolved through its relationships. Decks
// without a presentation part fall back to the slideN.xml numbering.
func deckOrder(zr *zip.Reader) ([]*zip.File, error) {
	parts := make(map[string]*zip.File)
	var numbered []*zip.File
	for _, f := range zr.File {
		parts[f.Name] = f
		if slidePart.MatchString(f.Name) {
			numbered = append(numbered, f)
		}
	}
	sort.Slice(numbered, func(i, j int) bool { return slideNumber(numbered[i].Name) < slideNumber(numbered[j].Name) })

	pres, rels := parts["ppt/presentation.xml"], parts["ppt/_rels/presentation.xml.rels"]
	if pres == nil || rels == nil {
		return numbered, nil
	}

	targets, err := readSlideRels(rels)
	if err != nil {
		return nil, err
	}
	ids, err := readSlideIDs(pres)
	if err != nil {
		return nil, err
	}

	var ordered []*zip.File
	for _, id := range ids {
		if f := parts[targets[id]]; f != nil {
			ordered = append(ordered, f)
		}
	}
	if len(ordered) == 0 {
		return numbered, nil
	}
	return ordered, nil
}

func slideNumber(name string) int {
	m := slidePart.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// readSlideRels maps relationship ids to zip part names.
func readSlideRels(f *zip.File) (map[string]string, error) {
	var doc struct {
		Relationships []struct {
			ID     string `xml:"Id,attr"`
			Type   string `xml:"Type,attr"`
			Target string `xml:"Target,attr"`
		} `xml:"Relationship"`
	}
	if err := decodePart(f, &doc); err != nil {
		return nil, err
	}
	targets := make(map[string]string, len(doc.Relationships))
	for _, rel := range doc.Relationships {
		if !strings.HasSuffix(rel.Type, "/slide") {
			continue
		}
		target := rel.Target
		if strings.HasPrefix(target, "/") {
			target = strings.TrimPrefix(target, "/")
		} else {
			target = path.Join("ppt", target)
		}
		targets[rel.ID] = target
	}
	return targets, nil
}

// readSlideIDs returns the r:id of every sldId in presentation order.
func readSlideIDs(f *zip.File) ([]string, error) {
	var doc struct {
		Slides []struct {
			Attrs []xml.Attr `xml:",any,attr"`
		} `xml:"sldIdLst>sldId"`
	}
	if err := decodePart(f, &doc); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(doc.Slides))
	for _, s := range doc.Slides {
		for _, a := range s.Attrs {
			if a.Name.Local == "id" && a.Name.Space == relationshipsNS {
				ids = append(ids, a.Value)
			}
		}
	}
	return ids, nil
}

func decodePart(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(io.LimitReader(rc, maxOOXMLPartLength)).Decode(v)
}

type slideShape struct {
	title bool
	text  string
}

func readSlideShapes(f *zip.File) ([]slideShape, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	dec := xml.NewDecoder(io.LimitReader(rc, maxOOXMLPartLength))
	var (
		shapes []slideShape
		cur    *slideShape
		paras  []string
		para   strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "sp" && t.Name.Space != drawingNS:
				cur = &slideShape{}
				paras = paras[:0]
			case t.Name.Local == "ph" && cur != nil:
				for _, a := range t.Attr {
					if a.Name.Local == "type" && (a.Value == "title" || a.Value == "ctrTitle") {
						cur.title = true
					}
				}
			case t.Name.Local == "p" && t.Name.Space == drawingNS:
				para.Reset()
			case t.Name.Local == "t" && t.Name.Space == drawingNS:
				inText = true
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		case xml.EndElement:
			switch {
			case t.Name.Local == "t" && t.Name.Space == drawingNS:
				inText = false
			case t.Name.Local == "p" && t.Name.Space == drawingNS:
				if cur != nil {
					paras = append(paras, para.String())
				}
			case t.Name.Local == "sp" && t.Name.Space != drawingNS && cur != nil:
				cur.text = strings.TrimSpace(strings.Join(paras, "\n"))
				shapes = append(shapes, *cur)
				cur = nil
			}
		}
	}
	return shapes, nil
}

// ParseDOCX groups paragraphs into chunks of a little over 500 words.
func ParseDOCX(r io.ReaderAt, size int64, source string) ([]Chunk, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open docx failed: %w", err)
	}
	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return nil, fmt.Errorf("open docx failed: word/document.xml not found")
	}

	paragraphs, err := readDocxParagraphs(doc)
	if err != nil {
		return nil, fmt.Errorf("read docx body failed: %w", err)
	}

	var (
		chunks  []Chunk
		current []string
		words   int
	)
	for i, p := range paragraphs {
		if strings.TrimSpace(p) == "" {
			continue
		}
		current = append(current, p)
		words += len(strings.Fields(p))
		if words > docxWordsPerChunk {
			chunks = append(chunks, Chunk{
				Content: strings.Join(current, "\n"),
				Source:  source,
				Page:    i/docxParasPerPage + 1,
				Type:    TypeDOCX,
			})
			current = nil
			words = 0
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, Chunk{
			Content: strings.Join(current, "\n"),
			Source:  source,
			Page:    len(chunks) + 1,
			Type:    TypeDOCX,
		})
	}
	return chunks, nil
}

func readDocxParagraphs(f *zip.File) ([]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	dec := xml.NewDecoder(io.LimitReader(rc, maxOOXMLPartLength))
	var (
		paragraphs []string
		para       strings.Builder
		inPara     bool
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "p":
				inPara = true
				para.Reset()
			case "t":
				inText = true
			case "tab":
				if inPara {
					para.WriteByte('\t')
				}
			case "br":
				if inPara {
					para.WriteByte('\n')
				}
			}
		case xml.CharData:
			if inText && inPara {
				para.Write(t)
			}
		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				paragraphs = append(paragraphs, para.String())
				inPara = false
			}
		}
	}
	return paragraphs, nil
}
