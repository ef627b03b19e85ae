package feed

import (
	"github.com/gorilla/feeds"
	"github.com/mmcdole/gofeed"
)

// convertFeed converts a parsed gofeed.Feed into a renderable feeds.Feed
func convertFeed(src *gofeed.Feed) *feeds.Feed {
	// Check if is empty feed
	if src == nil {
		return nil
	}

	// Set basic
	feed := &feeds.Feed{
		Title:       src.Title,
		Description: src.Description,
		Copyright:   src.Copyright,
		Link: &feeds.Link{
			Href: src.Link,
		},
	}

	// Set author
	if author := firstPerson(src.Authors, src.Author); author != nil {
		feed.Author = author
	}

	// Set dates
	if src.PublishedParsed != nil && !src.PublishedParsed.IsZero() {
		feed.Created = *src.PublishedParsed
	}
	if src.UpdatedParsed != nil && !src.UpdatedParsed.IsZero() {
		feed.Updated = *src.UpdatedParsed
	}

	if src.Image != nil && src.Image.URL != "" {
		feed.Image = &feeds.Image{
			Url:   src.Image.URL,
			Title: src.Image.Title,
			Link:  src.Link,
		}
	}

	// Set items
	for _, srcItem := range src.Items {
		feed.Items = append(feed.Items, convertItem(srcItem))
	}

	return feed
}

func convertItem(src *gofeed.Item) *feeds.Item {
	item := &feeds.Item{
		Id:          src.GUID,
		Title:       src.Title,
		Description: src.Description,
		Content:     src.Content,
		Link: &feeds.Link{
			Href: src.Link,
		},
	}

	if author := firstPerson(src.Authors, src.Author); author != nil {
		item.Author = author
	}
	if src.PublishedParsed != nil && !src.PublishedParsed.IsZero() {
		item.Created = *src.PublishedParsed
	}
	if src.UpdatedParsed != nil && !src.UpdatedParsed.IsZero() {
		item.Updated = *src.UpdatedParsed
	}

	if len(src.Enclosures) > 0 && src.Enclosures[0].URL != "" {
		item.Enclosure = &feeds.Enclosure{
			Url:    src.Enclosures[0].URL,
			Length: src.Enclosures[0].Length,
			Type:   src.Enclosures[0].Type,
		}
	} else if src.Image != nil && src.Image.URL != "" {
		item.Enclosure = &feeds.Enclosure{
			Url: src.Image.URL,
		}
	}

	return item
}

func firstPerson(people []*gofeed.Person, fallback *gofeed.Person) *feeds.Author {
	if len(people) > 0 && people[0] != nil {
		return &feeds.Author{Name: people[0].Name, Email: people[0].Email}
	}
	if fallback != nil {
		return &feeds.Author{Name: fallback.Name, Email: fallback.Email}
	}
	return nil
}
