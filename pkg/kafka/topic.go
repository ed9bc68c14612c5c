package kafka

import "fmt"

// TopicPrefix namespaces every topic produced by this platform.
const TopicPrefix = "innospot"

// Topic builds a fully-qualified topic name from a domain and an action,
// e.g. Topic("review", "published") -> "innospot.review.published".
func Topic(domain, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, domain, action)
}
