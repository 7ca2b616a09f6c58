package admin

import (
	"encoding/xml"

	"github.com/queueworks/sb-admin-client/pkg/atom"
)

// QueueProperties describes a queue entity as reported by the management feed.
type QueueProperties struct {
	Name                             string
	LockDuration                     string
	MaxSizeInMegabytes               int64
	RequiresDuplicateDetection       bool
	RequiresSession                  bool
	DefaultMessageTimeToLive         string
	DeadLetteringOnMessageExpiration bool
	MaxDeliveryCount                 int32
	EnablePartitioning               bool
	Status                           string
	MessageCount                     int64
	SizeInBytes                      int64
}

// TopicProperties describes a topic entity.
type TopicProperties struct {
	Name                       string
	DefaultMessageTimeToLive   string
	MaxSizeInMegabytes         int64
	RequiresDuplicateDetection bool
	EnableBatchedOperations    bool
	EnablePartitioning         bool
	SupportOrdering            bool
	Status                     string
	SizeInBytes                int64
	SubscriptionCount          int32
}

// SubscriptionProperties describes a subscription under a topic.
type SubscriptionProperties struct {
	Name                             string
	LockDuration                     string
	RequiresSession                  bool
	DefaultMessageTimeToLive         string
	DeadLetteringOnMessageExpiration bool
	MaxDeliveryCount                 int32
	EnableBatchedOperations          bool
	Status                           string
	MessageCount                     int64
}

// RuleProperties describes a subscription rule.
type RuleProperties struct {
	Name             string
	FilterType       string
	SQLExpression    string
	CorrelationID    string
	ActionExpression string
}

// Wire-level description documents. The feed entry's <content> carries one
// of these; field sets follow the management schema.

type queueDescription struct {
	XMLName                          xml.Name `xml:"QueueDescription"`
	LockDuration                     string   `xml:"LockDuration"`
	MaxSizeInMegabytes               int64    `xml:"MaxSizeInMegabytes"`
	RequiresDuplicateDetection       bool     `xml:"RequiresDuplicateDetection"`
	RequiresSession                  bool     `xml:"RequiresSession"`
	DefaultMessageTimeToLive         string   `xml:"DefaultMessageTimeToLive"`
	DeadLetteringOnMessageExpiration bool     `xml:"DeadLetteringOnMessageExpiration"`
	MaxDeliveryCount                 int32    `xml:"MaxDeliveryCount"`
	EnablePartitioning               bool     `xml:"EnablePartitioning"`
	Status                           string   `xml:"Status"`
	MessageCount                     int64    `xml:"MessageCount"`
	SizeInBytes                      int64    `xml:"SizeInBytes"`
}

type topicDescription struct {
	XMLName                    xml.Name `xml:"TopicDescription"`
	DefaultMessageTimeToLive   string   `xml:"DefaultMessageTimeToLive"`
	MaxSizeInMegabytes         int64    `xml:"MaxSizeInMegabytes"`
	RequiresDuplicateDetection bool     `xml:"RequiresDuplicateDetection"`
	EnableBatchedOperations    bool     `xml:"EnableBatchedOperations"`
	EnablePartitioning         bool     `xml:"EnablePartitioning"`
	SupportOrdering            bool     `xml:"SupportOrdering"`
	Status                     string   `xml:"Status"`
	SizeInBytes                int64    `xml:"SizeInBytes"`
	SubscriptionCount          int32    `xml:"SubscriptionCount"`
}

type subscriptionDescription struct {
	XMLName                          xml.Name `xml:"SubscriptionDescription"`
	LockDuration                     string   `xml:"LockDuration"`
	RequiresSession                  bool     `xml:"RequiresSession"`
	DefaultMessageTimeToLive         string   `xml:"DefaultMessageTimeToLive"`
	DeadLetteringOnMessageExpiration bool     `xml:"DeadLetteringOnMessageExpiration"`
	MaxDeliveryCount                 int32    `xml:"MaxDeliveryCount"`
	EnableBatchedOperations          bool     `xml:"EnableBatchedOperations"`
	Status                           string   `xml:"Status"`
	MessageCount                     int64    `xml:"MessageCount"`
}

type ruleDescription struct {
	XMLName xml.Name   `xml:"RuleDescription"`
	Filter  ruleFilter `xml:"Filter"`
	Action  ruleAction `xml:"Action"`
	Name    string     `xml:"Name"`
}

type ruleFilter struct {
	Type          string `xml:"type,attr"`
	SQLExpression string `xml:"SqlExpression"`
	CorrelationID string `xml:"CorrelationId"`
}

type ruleAction struct {
	SQLExpression string `xml:"SqlExpression"`
}

// decodeQueue decodes one feed entry into QueueProperties.
func decodeQueue(entry atom.Entry) (QueueProperties, bool) {
	var desc queueDescription
	if err := xml.Unmarshal(entry.Content.Body, &desc); err != nil {
		return QueueProperties{}, false
	}
	return QueueProperties{
		Name:                             entry.Title,
		LockDuration:                     desc.LockDuration,
		MaxSizeInMegabytes:               desc.MaxSizeInMegabytes,
		RequiresDuplicateDetection:       desc.RequiresDuplicateDetection,
		RequiresSession:                  desc.RequiresSession,
		DefaultMessageTimeToLive:         desc.DefaultMessageTimeToLive,
		DeadLetteringOnMessageExpiration: desc.DeadLetteringOnMessageExpiration,
		MaxDeliveryCount:                 desc.MaxDeliveryCount,
		EnablePartitioning:               desc.EnablePartitioning,
		Status:                           desc.Status,
		MessageCount:                     desc.MessageCount,
		SizeInBytes:                      desc.SizeInBytes,
	}, true
}

func decodeTopic(entry atom.Entry) (TopicProperties, bool) {
	var desc topicDescription
	if err := xml.Unmarshal(entry.Content.Body, &desc); err != nil {
		return TopicProperties{}, false
	}
	return TopicProperties{
		Name:                       entry.Title,
		DefaultMessageTimeToLive:   desc.DefaultMessageTimeToLive,
		MaxSizeInMegabytes:         desc.MaxSizeInMegabytes,
		RequiresDuplicateDetection: desc.RequiresDuplicateDetection,
		EnableBatchedOperations:    desc.EnableBatchedOperations,
		EnablePartitioning:         desc.EnablePartitioning,
		SupportOrdering:            desc.SupportOrdering,
		Status:                     desc.Status,
		SizeInBytes:                desc.SizeInBytes,
		SubscriptionCount:          desc.SubscriptionCount,
	}, true
}

func decodeSubscription(entry atom.Entry) (SubscriptionProperties, bool) {
	var desc subscriptionDescription
	if err := xml.Unmarshal(entry.Content.Body, &desc); err != nil {
		return SubscriptionProperties{}, false
	}
	return SubscriptionProperties{
		Name:                             entry.Title,
		LockDuration:                     desc.LockDuration,
		RequiresSession:                  desc.RequiresSession,
		DefaultMessageTimeToLive:         desc.DefaultMessageTimeToLive,
		DeadLetteringOnMessageExpiration: desc.DeadLetteringOnMessageExpiration,
		MaxDeliveryCount:                 desc.MaxDeliveryCount,
		EnableBatchedOperations:          desc.EnableBatchedOperations,
		Status:                           desc.Status,
		MessageCount:                     desc.MessageCount,
	}, true
}

func decodeRule(entry atom.Entry) (RuleProperties, bool) {
	var desc ruleDescription
	if err := xml.Unmarshal(entry.Content.Body, &desc); err != nil {
		return RuleProperties{}, false
	}
	name := desc.Name
	if name == "" {
		name = entry.Title
	}
	return RuleProperties{
		Name:             name,
		FilterType:       desc.Filter.Type,
		SQLExpression:    desc.Filter.SQLExpression,
		CorrelationID:    desc.Filter.CorrelationID,
		ActionExpression: desc.Action.SQLExpression,
	}, true
}
