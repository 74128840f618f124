package telemetry

import (
	"fmt"
	"strings"
	"time"
)

// ObjectIdentifier is the universal key for samples, subscriptions and
// broadcast groups. Equality is structural; the canonical text form is
// "namespace:key".
type ObjectIdentifier struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
}

// NewIdentifier creates an ObjectIdentifier from its parts.
func NewIdentifier(namespace, key string) ObjectIdentifier {
	return ObjectIdentifier{Namespace: namespace, Key: key}
}

// ParseIdentifier parses the canonical "namespace:key" form.
func ParseIdentifier(s string) (ObjectIdentifier, error) {
	namespace, key, ok := strings.Cut(s, ":")
	if !ok || namespace == "" || key == "" {
		return ObjectIdentifier{}, fmt.Errorf("malformed object identifier %q (want namespace:key)", s)
	}
	return ObjectIdentifier{Namespace: namespace, Key: key}, nil
}

// String returns the canonical "namespace:key" form.
func (id ObjectIdentifier) String() string {
	return id.Namespace + ":" + id.Key
}

// IsZero reports whether the identifier is empty.
func (id ObjectIdentifier) IsZero() bool {
	return id.Namespace == "" && id.Key == ""
}

// Validate checks that both parts are present and free of the separator.
func (id ObjectIdentifier) Validate() error {
	if id.Namespace == "" {
		return fmt.Errorf("object identifier missing namespace")
	}
	if id.Key == "" {
		return fmt.Errorf("object identifier missing key")
	}
	if strings.Contains(id.Namespace, ":") {
		return fmt.Errorf("object namespace %q contains separator", id.Namespace)
	}
	return nil
}

// Sample is a single telemetry data point. Samples are immutable once
// stored; they may arrive out of order and the store orders them on read.
type Sample struct {
	ObjectID  ObjectIdentifier  `json:"object_id"`
	Timestamp time.Time         `json:"timestamp"`
	Value     Value             `json:"value"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Point is the (timestamp, value) pair returned by queries and carried by
// live telemetry updates.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     Value     `json:"value"`
}

// Point returns the sample's (timestamp, value) projection.
func (s Sample) Point() Point {
	return Point{Timestamp: s.Timestamp, Value: s.Value}
}
