package synthesizer

import (
	"fmt"

	"github.com/gorilla/feeds"

	"feedmill/internal/models"
)

// RenderRSS renders one feed document as RSS 2.0. The channel's build
// date comes from the newest item, never from the wall clock, so the
// output bytes are a pure function of the document.
func (s *Synthesizer) RenderRSS(doc *models.FeedDocument) ([]byte, error) {
	feed := &feeds.Feed{
		Title:       doc.Name,
		Link:        &feeds.Link{Href: doc.Link},
		Description: doc.Description,
		Updated:     doc.Newest(),
	}

	for _, rec := range doc.Items {
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       rec.Title,
			Link:        &feeds.Link{Href: rec.Link},
			Description: rec.Description,
			Id:          rec.Link,
			Created:     rec.Published,
		})
	}

	rss := (&feeds.Rss{Feed: feed}).RssFeed()
	rss.Language = s.language

	out, err := feeds.ToXML(rss)
	if err != nil {
		return nil, fmt.Errorf("failed to render RSS for %s: %w", doc.Group, err)
	}

	return []byte(out + "\n"), nil
}
