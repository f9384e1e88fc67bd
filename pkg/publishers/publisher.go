// Package publishers delivers generated url_links and QR codes to downstream
// sinks (HTTP webhooks, SQS, SNS, Pub/Sub) configured in a YAML or JSON file.
package publishers

import "context"

// Publisher sends events to a downstream sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt LinkEvent) error
}
