package atom

import (
	"errors"
	"testing"
)

const sampleFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title type="text">Queues</title>
  <updated>2024-03-01T10:00:00Z</updated>
  <link rel="self" href="https://contoso.servicebus.example.net/$Resources/queues?$skip=0&amp;$top=2"/>
  <link rel="next" href="https://contoso.servicebus.example.net/$Resources/queues?$skip=2&amp;$top=2"/>
  <entry>
    <id>https://contoso.servicebus.example.net/orders</id>
    <title type="text">orders</title>
    <updated>2024-03-01T09:00:00Z</updated>
    <content type="application/xml">
      <QueueDescription><MaxDeliveryCount>10</MaxDeliveryCount></QueueDescription>
    </content>
  </entry>
  <entry>
    <id>https://contoso.servicebus.example.net/billing</id>
    <title type="text">billing</title>
    <updated>2024-03-01T09:05:00Z</updated>
    <content type="application/xml">
      <QueueDescription><MaxDeliveryCount>5</MaxDeliveryCount></QueueDescription>
    </content>
  </entry>
</feed>`

func TestParseFeed(t *testing.T) {
	feed, err := ParseFeed([]byte(sampleFeed))
	if err != nil {
		t.Fatalf("ParseFeed failed: %v", err)
	}

	if len(feed.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(feed.Entries))
	}

	if feed.Entries[0].Title != "orders" {
		t.Errorf("Entries[0].Title = %q, want %q", feed.Entries[0].Title, "orders")
	}

	if len(feed.Entries[1].Content.Body) == 0 {
		t.Error("Entries[1].Content.Body is empty")
	}
}

func TestParseFeed_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "not xml",
			body: `{"error": "not xml at all"}`,
		},
		{
			name: "wrong top-level element",
			body: `<entry><title>orders</title></entry>`,
		},
		{
			name: "truncated document",
			body: `<feed xmlns="http://www.w3.org/2005/Atom"><entry>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFeed([]byte(tt.body))
			if !errors.Is(err, ErrMalformedFeed) {
				t.Errorf("ParseFeed error = %v, want ErrMalformedFeed", err)
			}
		})
	}
}

func TestNextSkip(t *testing.T) {
	feed, err := ParseFeed([]byte(sampleFeed))
	if err != nil {
		t.Fatalf("ParseFeed failed: %v", err)
	}

	skip, more, err := feed.NextSkip()
	if err != nil {
		t.Fatalf("NextSkip failed: %v", err)
	}
	if !more {
		t.Fatal("NextSkip more = false, want true")
	}
	if skip != "2" {
		t.Errorf("NextSkip = %q, want %q", skip, "2")
	}
}

func TestNextSkip_NoNextLink(t *testing.T) {
	feed := &Feed{
		Links: []Link{{Rel: "self", Href: "https://contoso.servicebus.example.net/$Resources/queues"}},
	}

	skip, more, err := feed.NextSkip()
	if err != nil {
		t.Fatalf("NextSkip failed: %v", err)
	}
	if more {
		t.Error("NextSkip more = true, want false")
	}
	if skip != "" {
		t.Errorf("NextSkip = %q, want empty", skip)
	}
}

func TestNextSkip_MalformedLinks(t *testing.T) {
	tests := []struct {
		name string
		href string
	}{
		{
			name: "missing skip parameter",
			href: "https://contoso.servicebus.example.net/$Resources/queues?$top=10",
		},
		{
			name: "non-numeric skip",
			href: "https://contoso.servicebus.example.net/$Resources/queues?$skip=abc",
		},
		{
			name: "negative skip",
			href: "https://contoso.servicebus.example.net/$Resources/queues?$skip=-5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := &Feed{Links: []Link{{Rel: "next", Href: tt.href}}}
			_, _, err := feed.NextSkip()
			if !errors.Is(err, ErrMalformedNextLink) {
				t.Errorf("NextSkip error = %v, want ErrMalformedNextLink", err)
			}
		})
	}
}
