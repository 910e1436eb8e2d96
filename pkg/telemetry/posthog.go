package telemetry

import (
	"github.com/posthog/posthog-go"
)

type postHogClient struct {
	client posthog.Client
}

// NewPostHogFactory returns an AnalyticsFactory sending to endpoint, or to
// PostHog's cloud when endpoint is empty.
func NewPostHogFactory(endpoint string) AnalyticsFactory {
	return func(key string) (AnalyticsClient, error) {
		return newPostHogClient(key, endpoint)
	}
}

func newPostHogClient(key, endpoint string) (*postHogClient, error) {
	client, err := posthog.NewWithConfig(key, posthog.Config{
		Endpoint: endpoint,
	})
	if err != nil {
		return nil, newError(KindAnalytics, err, "failed to create client")
	}
	return &postHogClient{client: client}, nil
}

func (c *postHogClient) Capture(distinctID, event string, properties map[string]any) error {
	return c.client.Enqueue(posthog.Capture{
		DistinctId: distinctID,
		Event:      event,
		Properties: posthog.Properties(properties),
	})
}

// Close delivers queued events before returning.
func (c *postHogClient) Close() error {
	return c.client.Close()
}
