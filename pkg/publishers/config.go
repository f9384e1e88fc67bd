package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported publisher types.
const (
	TypeHTTP   = "http"
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypePubSub = "pubsub"
)

const defaultHTTPTimeoutSeconds = 5

// PublisherConfig is one entry of the publishers file. Kinds restricts the
// entry to some event kinds; empty means every kind.
type PublisherConfig struct {
	ID      string        `json:"id" yaml:"id"`
	Type    string        `json:"type" yaml:"type"`
	Enabled *bool         `json:"enabled" yaml:"enabled"`
	Kinds   []string      `json:"kinds" yaml:"kinds"`
	HTTP    *HTTPConfig   `json:"http" yaml:"http"`
	SQS     *SQSConfig    `json:"sqs" yaml:"sqs"`
	SNS     *SNSConfig    `json:"sns" yaml:"sns"`
	PubSub  *PubSubConfig `json:"pubsub" yaml:"pubsub"`
}

// AWSSettings is shared by the SQS and SNS sinks. Without static keys the
// default credential chain applies.
type AWSSettings struct {
	Region          string `json:"region" yaml:"region"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
}

// HTTPConfig describes a webhook sink.
type HTTPConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// SQSConfig describes an SQS queue sink.
type SQSConfig struct {
	QueueURL    string `json:"queue_url" yaml:"queue_url"`
	AWSSettings `yaml:",inline"`
}

// SNSConfig describes an SNS topic sink.
type SNSConfig struct {
	TopicARN    string `json:"topic_arn" yaml:"topic_arn"`
	AWSSettings `yaml:",inline"`
}

// PubSubConfig describes a Google Cloud Pub/Sub topic sink.
type PubSubConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
}

// LoadFile reads the publishers file and returns its enabled entries, normalized
// and validated. Disabled entries only take part in the duplicate id check.
func LoadFile(path string) ([]PublisherConfig, error) {
	raw, err := os.ReadFile(strings.TrimSpace(path))
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	var file struct {
		Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(raw, &file)
	} else {
		err = yaml.Unmarshal(raw, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("decode publishers file %s: %w", path, err)
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	seen := make(map[string]bool, len(file.Publishers))
	var enabled []PublisherConfig
	for i, cfg := range file.Publishers {
		cfg.ID = strings.TrimSpace(cfg.ID)
		if cfg.ID == "" {
			return nil, fmt.Errorf("publishers[%d]: id is required", i)
		}
		if seen[cfg.ID] {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		seen[cfg.ID] = true

		if cfg.Enabled != nil && !*cfg.Enabled {
			continue
		}
		if err := cfg.normalize(); err != nil {
			return nil, fmt.Errorf("publisher %q: %w", cfg.ID, err)
		}
		enabled = append(enabled, cfg)
	}
	return enabled, nil
}

// Accepts reports whether events of kind are routed to this entry.
func (c PublisherConfig) Accepts(kind string) bool {
	if len(c.Kinds) == 0 {
		return true
	}
	for _, k := range c.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// normalize trims every field, applies defaults and validates the block
// matching Type.
func (c *PublisherConfig) normalize() error {
	c.Type = strings.ToLower(strings.TrimSpace(c.Type))

	kinds := make([]string, 0, len(c.Kinds))
	for _, k := range c.Kinds {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != KindURLLink && k != KindQRCode {
			return fmt.Errorf("unknown event kind %q (want %s or %s)", k, KindURLLink, KindQRCode)
		}
		kinds = append(kinds, k)
	}
	c.Kinds = kinds

	switch c.Type {
	case "":
		return errors.New("type is required")
	case TypeHTTP:
		if c.HTTP == nil {
			return errors.New("http block is required")
		}
		return c.HTTP.normalize()
	case TypeSQS:
		if c.SQS == nil {
			return errors.New("sqs block is required")
		}
		c.SQS.QueueURL = strings.TrimSpace(c.SQS.QueueURL)
		if c.SQS.QueueURL == "" {
			return errors.New("sqs.queue_url is required")
		}
		return c.SQS.AWSSettings.normalize("sqs")
	case TypeSNS:
		if c.SNS == nil {
			return errors.New("sns block is required")
		}
		c.SNS.TopicARN = strings.TrimSpace(c.SNS.TopicARN)
		if c.SNS.TopicARN == "" {
			return errors.New("sns.topic_arn is required")
		}
		return c.SNS.AWSSettings.normalize("sns")
	case TypePubSub:
		if c.PubSub == nil {
			return errors.New("pubsub block is required")
		}
		p := c.PubSub
		p.ProjectID = strings.TrimSpace(p.ProjectID)
		p.Topic = strings.TrimSpace(p.Topic)
		p.CredentialsFile = strings.TrimSpace(p.CredentialsFile)
		p.Endpoint = strings.TrimSpace(p.Endpoint)
		if p.ProjectID == "" || p.Topic == "" {
			return errors.New("pubsub.project_id and pubsub.topic are required")
		}
		return nil
	default:
		return fmt.Errorf("unsupported type %q", c.Type)
	}
}

func (h *HTTPConfig) normalize() error {
	h.URL = strings.TrimSpace(h.URL)
	if h.URL == "" {
		return errors.New("http.url is required")
	}
	h.Method = strings.ToUpper(strings.TrimSpace(h.Method))
	if h.Method == "" {
		h.Method = "POST"
	}
	if h.TimeoutSeconds <= 0 {
		h.TimeoutSeconds = defaultHTTPTimeoutSeconds
	}

	headers := make(map[string]string, len(h.Headers))
	for k, v := range h.Headers {
		if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
			headers[k] = v
		}
	}
	h.Headers = headers
	return nil
}

func (a *AWSSettings) normalize(block string) error {
	a.Region = strings.TrimSpace(a.Region)
	a.Endpoint = strings.TrimSpace(a.Endpoint)
	a.AccessKeyID = strings.TrimSpace(a.AccessKeyID)
	a.SecretAccessKey = strings.TrimSpace(a.SecretAccessKey)
	if a.Region == "" {
		return fmt.Errorf("%s.region is required", block)
	}
	if (a.AccessKeyID == "") != (a.SecretAccessKey == "") {
		return fmt.Errorf("%s.access_key_id and %s.secret_access_key go together", block, block)
	}
	return nil
}
