package normalize

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"strings"
)

// maxXMLDepth bounds element nesting in word-processor archives.
// Deeply nested documents are XML bombs, not prose.
const maxXMLDepth = 256

var errXMLDepth = fmt.Errorf("xml nesting depth exceeds %d", maxXMLDepth)

// wordBlock is one structural unit of a word-processor document.
// Level 0 is a body paragraph, 1-6 a heading.
type wordBlock struct {
	level int
	text  string
}

type wordParser func(r io.Reader) (string, []wordBlock, error)

// wordToMarkdown opens a word-processor archive, parses the named XML
// entry into blocks, renders them as intermediate HTML, and runs the
// HTML branch. Returns the source title and the markdown body.
func (n *Normalizer) wordToMarkdown(path, entry string, parse wordParser) (string, string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", "", fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	var entryFile *zip.File
	for _, f := range r.File {
		if f.Name == entry {
			entryFile = f
			break
		}
	}
	if entryFile == nil {
		return "", "", fmt.Errorf("%s not found in archive", entry)
	}

	rc, err := entryFile.Open()
	if err != nil {
		return "", "", fmt.Errorf("open %s: %w", entry, err)
	}
	defer rc.Close()

	title, blocks, err := parse(rc)
	if err != nil {
		return "", "", err
	}
	return title, n.htmlToMarkdown(blocksToHTML(blocks)), nil
}

func blocksToHTML(blocks []wordBlock) string {
	var sb strings.Builder
	for _, b := range blocks {
		text := html.EscapeString(b.text)
		if b.level > 0 {
			fmt.Fprintf(&sb, "<h%d>%s</h%d>\n", b.level, text, b.level)
		} else {
			fmt.Fprintf(&sb, "<p>%s</p>\n", text)
		}
	}
	return sb.String()
}

// parseDocx scans word/document.xml: w:p paragraphs, w:pStyle heading
// styles, text runs in w:t elements.
func parseDocx(r io.Reader) (string, []wordBlock, error) {
	decoder := xml.NewDecoder(r)
	var blocks []wordBlock
	var title string
	var current strings.Builder
	var inParagraph bool
	var style string
	depth := 0

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("decode document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth > maxXMLDepth {
				return "", nil, errXMLDepth
			}
			switch t.Name.Local {
			case "p":
				inParagraph = true
				current.Reset()
				style = ""
			case "pStyle":
				if inParagraph {
					for _, attr := range t.Attr {
						if attr.Name.Local == "val" {
							style = attr.Value
						}
					}
				}
			}

		case xml.CharData:
			if inParagraph {
				current.Write(t)
			}

		case xml.EndElement:
			depth--
			if t.Name.Local == "p" && inParagraph {
				inParagraph = false
				text := strings.TrimSpace(current.String())
				if text == "" {
					continue
				}
				level := docxHeadingLevel(style)
				if level > 0 && title == "" {
					title = text
				}
				blocks = append(blocks, wordBlock{level: level, text: text})
			}
		}
	}
	return title, blocks, nil
}

// docxHeadingLevel maps a paragraph style name to a heading level:
// "Heading1" → 1, "Title" → 1, "Subtitle" → 2, 0 for body styles.
func docxHeadingLevel(style string) int {
	lower := strings.ToLower(style)
	if lower == "title" {
		return 1
	}
	if lower == "subtitle" {
		return 2
	}
	for _, prefix := range []string{"heading", "titre", "überschrift"} {
		if strings.HasPrefix(lower, prefix) {
			rest := lower[len(prefix):]
			if len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
				return int(rest[0] - '0')
			}
		}
	}
	return 0
}

// parseODT scans content.xml: text:h headings with outline levels and
// text:p paragraphs.
func parseODT(r io.Reader) (string, []wordBlock, error) {
	decoder := xml.NewDecoder(r)
	var blocks []wordBlock
	var title string
	var current strings.Builder
	var inBlock bool
	var level int
	depth := 0

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("decode content.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth > maxXMLDepth {
				return "", nil, errXMLDepth
			}
			switch t.Name.Local {
			case "h":
				inBlock = true
				current.Reset()
				level = 1
				for _, attr := range t.Attr {
					if attr.Name.Local == "outline-level" && len(attr.Value) == 1 {
						if l := int(attr.Value[0] - '0'); l >= 1 && l <= 6 {
							level = l
						}
					}
				}
			case "p":
				inBlock = true
				current.Reset()
				level = 0
			}

		case xml.CharData:
			if inBlock {
				current.Write(t)
			}

		case xml.EndElement:
			depth--
			if (t.Name.Local == "h" || t.Name.Local == "p") && inBlock {
				inBlock = false
				text := strings.TrimSpace(current.String())
				if text == "" {
					continue
				}
				if level > 0 && title == "" {
					title = text
				}
				blocks = append(blocks, wordBlock{level: level, text: text})
			}
		}
	}
	return title, blocks, nil
}
