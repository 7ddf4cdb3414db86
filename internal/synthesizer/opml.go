package synthesizer

import (
	"encoding/xml"
	"fmt"

	"feedmill/internal/models"
)

// IndexFilename is the name of the OPML manifest in the output directory.
const IndexFilename = "feeds.opml"

type opmlDoc struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    opmlHead `xml:"head"`
	Body    opmlBody `xml:"body"`
}

type opmlHead struct {
	Title string `xml:"title"`
}

type opmlBody struct {
	Outlines []opmlOutline `xml:"outline"`
}

type opmlOutline struct {
	Text   string `xml:"text,attr"`
	Type   string `xml:"type,attr"`
	XMLURL string `xml:"xmlUrl,attr"`
}

// RenderOPML renders the index as an OPML 2.0 subscription list.
// Output is deterministic: entries are already sorted and the encoding
// uses fixed indentation.
func (s *Synthesizer) RenderOPML(index *models.FeedIndex) ([]byte, error) {
	doc := opmlDoc{
		Version: "2.0",
		Head:    opmlHead{Title: "Feeds export"},
	}

	for _, entry := range index.Entries {
		doc.Body.Outlines = append(doc.Body.Outlines, opmlOutline{
			Text:   entry.Name,
			Type:   "rss",
			XMLURL: entry.URL,
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render OPML: %w", err)
	}

	return []byte(xml.Header + string(out) + "\n"), nil
}
