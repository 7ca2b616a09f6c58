package admin

import (
	"testing"

	"github.com/queueworks/sb-admin-client/pkg/atom"
)

func entryWith(title, content string) atom.Entry {
	return atom.Entry{
		Title:   title,
		Content: atom.Content{Type: "application/xml", Body: []byte(content)},
	}
}

func TestDecodeQueue(t *testing.T) {
	entry := entryWith("orders", `
		<QueueDescription>
			<LockDuration>PT1M</LockDuration>
			<MaxSizeInMegabytes>1024</MaxSizeInMegabytes>
			<RequiresSession>true</RequiresSession>
			<DeadLetteringOnMessageExpiration>true</DeadLetteringOnMessageExpiration>
			<MaxDeliveryCount>10</MaxDeliveryCount>
			<Status>Active</Status>
			<MessageCount>42</MessageCount>
		</QueueDescription>`)

	q, ok := decodeQueue(entry)
	if !ok {
		t.Fatal("decodeQueue failed")
	}

	if q.Name != "orders" {
		t.Errorf("Name = %q, want %q", q.Name, "orders")
	}
	if q.LockDuration != "PT1M" {
		t.Errorf("LockDuration = %q, want %q", q.LockDuration, "PT1M")
	}
	if !q.RequiresSession {
		t.Error("RequiresSession = false, want true")
	}
	if q.MaxDeliveryCount != 10 {
		t.Errorf("MaxDeliveryCount = %d, want 10", q.MaxDeliveryCount)
	}
	if q.MessageCount != 42 {
		t.Errorf("MessageCount = %d, want 42", q.MessageCount)
	}
}

func TestDecodeQueue_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "truncated", content: `<QueueDescription><LockDuration>`},
		{name: "wrong document", content: `<TopicDescription></TopicDescription>`},
		{name: "empty", content: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := decodeQueue(entryWith("orders", tt.content)); ok {
				t.Error("decodeQueue succeeded, want failure")
			}
		})
	}
}

func TestDecodeTopic(t *testing.T) {
	entry := entryWith("events", `
		<TopicDescription>
			<MaxSizeInMegabytes>2048</MaxSizeInMegabytes>
			<SupportOrdering>true</SupportOrdering>
			<Status>Active</Status>
			<SubscriptionCount>3</SubscriptionCount>
		</TopicDescription>`)

	tp, ok := decodeTopic(entry)
	if !ok {
		t.Fatal("decodeTopic failed")
	}

	if tp.Name != "events" {
		t.Errorf("Name = %q, want %q", tp.Name, "events")
	}
	if !tp.SupportOrdering {
		t.Error("SupportOrdering = false, want true")
	}
	if tp.SubscriptionCount != 3 {
		t.Errorf("SubscriptionCount = %d, want 3", tp.SubscriptionCount)
	}
}

func TestDecodeSubscription(t *testing.T) {
	entry := entryWith("audit", `
		<SubscriptionDescription>
			<LockDuration>PT30S</LockDuration>
			<RequiresSession>true</RequiresSession>
			<MaxDeliveryCount>5</MaxDeliveryCount>
			<MessageCount>7</MessageCount>
		</SubscriptionDescription>`)

	sub, ok := decodeSubscription(entry)
	if !ok {
		t.Fatal("decodeSubscription failed")
	}

	if sub.Name != "audit" {
		t.Errorf("Name = %q, want %q", sub.Name, "audit")
	}
	if sub.LockDuration != "PT30S" {
		t.Errorf("LockDuration = %q, want %q", sub.LockDuration, "PT30S")
	}
	if !sub.RequiresSession {
		t.Error("RequiresSession = false, want true")
	}
}

func TestDecodeRule(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    RuleProperties
	}{
		{
			name: "sql filter with action",
			content: `<RuleDescription>
				<Filter type="SqlFilter"><SqlExpression>priority &gt; 2</SqlExpression></Filter>
				<Action><SqlExpression>SET priority = 0</SqlExpression></Action>
				<Name>high-priority</Name>
			</RuleDescription>`,
			want: RuleProperties{
				Name:             "high-priority",
				FilterType:       "SqlFilter",
				SQLExpression:    "priority > 2",
				ActionExpression: "SET priority = 0",
			},
		},
		{
			name: "correlation filter, name from entry title",
			content: `<RuleDescription>
				<Filter type="CorrelationFilter"><CorrelationId>order-events</CorrelationId></Filter>
			</RuleDescription>`,
			want: RuleProperties{
				Name:          "fallback-title",
				FilterType:    "CorrelationFilter",
				CorrelationID: "order-events",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := decodeRule(entryWith("fallback-title", tt.content))
			if !ok {
				t.Fatal("decodeRule failed")
			}
			if rule != tt.want {
				t.Errorf("decodeRule = %+v, want %+v", rule, tt.want)
			}
		})
	}
}

func TestClientFacade_Paths(t *testing.T) {
	c := NewClient(&fakeTransport{})

	if got := c.Queues().basePath; got != "$Resources/queues" {
		t.Errorf("Queues basePath = %q", got)
	}
	if got := c.Topics().basePath; got != "$Resources/topics" {
		t.Errorf("Topics basePath = %q", got)
	}
	if got := c.Subscriptions("events").basePath; got != "events/subscriptions" {
		t.Errorf("Subscriptions basePath = %q", got)
	}
	if got := c.Rules("events", "audit").basePath; got != "events/subscriptions/audit/rules" {
		t.Errorf("Rules basePath = %q", got)
	}
}
