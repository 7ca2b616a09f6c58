// Package atom parses the Atom feed envelope returned by Service Bus
// management list endpoints and extracts the continuation marker from
// the feed's "next" link.
package atom

import (
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Common errors returned while parsing list responses.
var (
	// ErrMalformedFeed indicates the response body is not an Atom feed.
	ErrMalformedFeed = errors.New("malformed atom feed")

	// ErrMalformedNextLink indicates the feed's next link carries an
	// unparseable skip parameter.
	ErrMalformedNextLink = errors.New("malformed next link")
)

// Feed is the envelope of a management list response.
type Feed struct {
	XMLName xml.Name  `xml:"feed"`
	Title   string    `xml:"title"`
	Updated time.Time `xml:"updated"`
	Links   []Link    `xml:"link"`
	Entries []Entry   `xml:"entry"`
}

// Link is a feed-level relation. List responses carry rel="self" and,
// when further pages exist, rel="next".
type Link struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

// Entry is a single entity record inside a feed.
type Entry struct {
	ID      string    `xml:"id"`
	Title   string    `xml:"title"`
	Updated time.Time `xml:"updated"`
	Content Content   `xml:"content"`
}

// Content holds the raw entity description XML. Decoding into a typed
// entity is the caller's concern.
type Content struct {
	Type string `xml:"type,attr"`
	Body []byte `xml:",innerxml"`
}

// ParseFeed parses a list response body into a Feed.
// A body whose top-level element is not an Atom feed is a fatal parse
// error for the page.
func ParseFeed(data []byte) (*Feed, error) {
	var feed Feed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}
	if feed.XMLName.Local != "feed" {
		return nil, fmt.Errorf("%w: top-level element is %q", ErrMalformedFeed, feed.XMLName.Local)
	}
	return &feed, nil
}

// NextSkip extracts the skip cursor from the feed's "next" link.
// The second return value is false when the server indicates the scan is
// exhausted (no next link). A next link whose $skip parameter is missing
// or does not parse to a non-negative integer is a parse error.
func (f *Feed) NextSkip() (string, bool, error) {
	href := ""
	for _, link := range f.Links {
		if link.Rel == "next" {
			href = link.Href
			break
		}
	}
	if href == "" {
		return "", false, nil
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrMalformedNextLink, err)
	}

	skipStr := u.Query().Get("$skip")
	if skipStr == "" {
		return "", false, fmt.Errorf("%w: missing $skip parameter in %q", ErrMalformedNextLink, href)
	}

	skip, err := strconv.Atoi(skipStr)
	if err != nil || skip < 0 {
		return "", false, fmt.Errorf("%w: $skip=%q", ErrMalformedNextLink, skipStr)
	}

	return strconv.Itoa(skip), true, nil
}
