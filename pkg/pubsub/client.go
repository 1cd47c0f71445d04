// Package pubsub publishes chat-bot messages to Google Cloud Pub/Sub.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/chatstore-backend/pkg/config"
	"github.com/angelmondragon/chatstore-backend/pkg/logger"
)

type Client struct {
	client     *pubsub.Client
	projectID  string
	cfg        config.PubSubConfig
	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
}

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errTopicRequired     = errors.New("pubsub chatbot topic is required")
	errNotInitialized    = errors.New("pubsub client not initialized")
)

// NewClient creates a Pub/Sub v2 client and ensures the chat-bot topic exists.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(gcp.ProjectID) == "" {
		return nil, errProjectIDRequired
	}
	if strings.TrimSpace(cfg.ChatbotTopic) == "" {
		return nil, errTopicRequired
	}

	psClient, err := pubsub.NewClient(ctx, gcp.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{
		client:     psClient,
		projectID:  gcp.ProjectID,
		cfg:        cfg,
		publishers: map[string]*pubsub.Publisher{},
	}
	if err := c.ensureTopicExists(ctx, cfg.ChatbotTopic); err != nil {
		_ = psClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "topic", cfg.ChatbotTopic), "pubsub client initialized")
	}
	return c, nil
}

func (c *Client) ensureTopicExists(ctx context.Context, name string) error {
	fullName := topicResourceName(c.projectID, name)
	if fullName == "" {
		return fmt.Errorf("topic %q not configured", name)
	}
	_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: fullName})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("topic %q does not exist", name)
		}
		return fmt.Errorf("checking topic %q: %w", name, err)
	}
	return nil
}

// Publish sends one message to topic and waits for the server id.
func (c *Client) Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	publisher, err := c.publisher(topic)
	if err != nil {
		return "", err
	}
	result := publisher.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish to %q: %w", topic, err)
	}
	return id, nil
}

// ChatbotPublisher binds Publish to the configured chat-bot topic.
func (c *Client) ChatbotPublisher() *TopicPublisher {
	return &TopicPublisher{client: c, topic: c.cfg.ChatbotTopic}
}

// TopicPublisher publishes to one fixed topic.
type TopicPublisher struct {
	client *Client
	topic  string
}

func (p *TopicPublisher) Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
	if p == nil {
		return "", errNotInitialized
	}
	return p.client.Publish(ctx, p.topic, data, attrs)
}

func (c *Client) publisher(topic string) (*pubsub.Publisher, error) {
	if c == nil || c.client == nil {
		return nil, errNotInitialized
	}
	fullName := topicResourceName(c.projectID, topic)
	if fullName == "" {
		return nil, errTopicRequired
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.publishers[fullName]; ok {
		return p, nil
	}
	p := c.client.Publisher(fullName)
	c.publishers[fullName] = p
	return p, nil
}

// Ping verifies the chat-bot topic is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errNotInitialized
	}
	return c.ensureTopicExists(ctx, c.cfg.ChatbotTopic)
}

// Close flushes pending messages and releases the client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	c.mu.Lock()
	for _, p := range c.publishers {
		p.Stop()
	}
	c.publishers = map[string]*pubsub.Publisher{}
	c.mu.Unlock()
	return c.client.Close()
}

func topicResourceName(projectID, name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/topics/") {
		return n
	}
	p := strings.TrimSpace(projectID)
	if p == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/topics/%s", p, n)
}
