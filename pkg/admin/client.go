package admin

import (
	"fmt"
)

// Entity collection paths under the namespace.
const (
	queuesPath = "$Resources/queues"
	topicsPath = "$Resources/topics"
)

// Client is the entity management facade. It binds one lister per entity
// kind to a shared transport; all four kinds run the same paging algorithm.
type Client struct {
	transport Requester
}

// NewClient creates a management facade over the given transport.
func NewClient(transport Requester) *Client {
	return &Client{transport: transport}
}

// Queues returns a lister over the namespace's queues.
func (c *Client) Queues() *Lister[QueueProperties] {
	return NewLister(c.transport, "queue", queuesPath, decodeQueue)
}

// Topics returns a lister over the namespace's topics.
func (c *Client) Topics() *Lister[TopicProperties] {
	return NewLister(c.transport, "topic", topicsPath, decodeTopic)
}

// Subscriptions returns a lister over a topic's subscriptions.
func (c *Client) Subscriptions(topicName string) *Lister[SubscriptionProperties] {
	path := fmt.Sprintf("%s/subscriptions", topicName)
	return NewLister(c.transport, "subscription", path, decodeSubscription)
}

// Rules returns a lister over a subscription's rules.
func (c *Client) Rules(topicName, subscriptionName string) *Lister[RuleProperties] {
	path := fmt.Sprintf("%s/subscriptions/%s/rules", topicName, subscriptionName)
	return NewLister(c.transport, "rule", path, decodeRule)
}
