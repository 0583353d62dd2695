package candidate

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Entry is one conversation in the chat list.
type Entry struct {
	// Index is the 1-based position among list items, usable in :nth-child().
	Index  int
	Unread bool
	Title  string
}

// ParseList reads the conversation list markup into entries, top to bottom.
func ParseList(html string, sel Selectors) ([]Entry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse chat list: %w", err)
	}

	var entries []Entry
	doc.Find(sel.Item).Each(func(i int, item *goquery.Selection) {
		entries = append(entries, Entry{
			Index:  i + 1,
			Unread: item.Find(sel.Badge).Length() > 0,
			Title:  strings.TrimSpace(item.Find(sel.SourceJob).First().Text()),
		})
	})
	return entries, nil
}

// BadgeSelector addresses the unread badge of the entry at index.
func BadgeSelector(sel Selectors, index int) string {
	return fmt.Sprintf("%s %s:nth-child(%d) %s", sel.List, sel.Item, index, sel.Badge)
}

// FirstBadgeSelector addresses the first unread badge anywhere in the list.
func FirstBadgeSelector(sel Selectors) string {
	return sel.List + " " + sel.Badge
}
