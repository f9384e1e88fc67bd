package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/samvad-hq/weixin-sdk/pkg/logging"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// sendFunc delivers a JSON body tagged with the event kind and returns the
// message id assigned by AWS.
type sendFunc func(ctx context.Context, body, kind string) (string, error)

// awsPublisher is the SQS or SNS sink; only its sendFunc differs.
type awsPublisher struct {
	id   string
	typ  string
	send sendFunc
	log  logging.Logger
}

func newSQSPublisher(ctx context.Context, cfg PublisherConfig, log logging.Logger) (Publisher, error) {
	if cfg.SQS == nil {
		return nil, fmt.Errorf("publisher %q missing sqs configuration", cfg.ID)
	}
	awsCfg, err := loadAWSConfig(ctx, cfg.SQS.AWSSettings)
	if err != nil {
		return nil, err
	}
	client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if cfg.SQS.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.SQS.Endpoint)
		}
	})
	return &awsPublisher{id: cfg.ID, typ: TypeSQS, send: sqsSender(client, cfg.SQS.QueueURL), log: logging.OrNop(log)}, nil
}

func newSNSPublisher(ctx context.Context, cfg PublisherConfig, log logging.Logger) (Publisher, error) {
	if cfg.SNS == nil {
		return nil, fmt.Errorf("publisher %q missing sns configuration", cfg.ID)
	}
	awsCfg, err := loadAWSConfig(ctx, cfg.SNS.AWSSettings)
	if err != nil {
		return nil, err
	}
	client := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if cfg.SNS.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.SNS.Endpoint)
		}
	})
	return &awsPublisher{id: cfg.ID, typ: TypeSNS, send: snsSender(client, cfg.SNS.TopicARN), log: logging.OrNop(log)}, nil
}

func sqsSender(client sqsAPI, queueURL string) sendFunc {
	return func(ctx context.Context, body, kind string) (string, error) {
		out, err := client.SendMessage(ctx, &sqs.SendMessageInput{
			QueueUrl:    aws.String(queueURL),
			MessageBody: aws.String(body),
			MessageAttributes: map[string]sqstypes.MessageAttributeValue{
				"kind": {DataType: aws.String("String"), StringValue: aws.String(kind)},
			},
		})
		if err != nil {
			return "", err
		}
		return aws.ToString(out.MessageId), nil
	}
}

func snsSender(client snsAPI, topicARN string) sendFunc {
	return func(ctx context.Context, body, kind string) (string, error) {
		out, err := client.Publish(ctx, &sns.PublishInput{
			TopicArn: aws.String(topicARN),
			Message:  aws.String(body),
			MessageAttributes: map[string]snstypes.MessageAttributeValue{
				"kind": {DataType: aws.String("String"), StringValue: aws.String(kind)},
			},
		})
		if err != nil {
			return "", err
		}
		return aws.ToString(out.MessageId), nil
	}
}

func (p *awsPublisher) ID() string   { return p.id }
func (p *awsPublisher) Type() string { return p.typ }

func (p *awsPublisher) Publish(ctx context.Context, evt LinkEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msgID, err := p.send(ctx, string(body), evt.Kind)
	if err != nil {
		p.log.ErrorObj("aws publisher send failed", "publisher_error", map[string]any{
			"publisher_id": p.id,
			"type":         p.typ,
			"error":        err.Error(),
		})
		return fmt.Errorf("send to %s: %w", p.typ, err)
	}
	p.log.DebugObj("aws publisher delivered event", "publisher_delivery", map[string]any{
		"publisher_id": p.id,
		"type":         p.typ,
		"kind":         evt.Kind,
		"message_id":   msgID,
	})
	return nil
}

// loadAWSConfig resolves region and credentials for an AWS sink.
func loadAWSConfig(ctx context.Context, s AWSSettings) (aws.Config, error) {
	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(s.Region)}
	if s.AccessKeyID != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.AccessKeyID, s.SecretAccessKey, ""),
		))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}
