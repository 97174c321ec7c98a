// Package aws publishes submission events to SNS for the matching backend.
package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"scoutly/internal/common/logger"
	"scoutly/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

const EventSubmissionCreated = "submission.created"

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SubmissionEvent is the message body published after a successful commit.
type SubmissionEvent struct {
	Event             string                 `json:"event"`
	SubmissionID      string                 `json:"submissionId"`
	UserID            string                 `json:"userId"`
	PhotoURL          string                 `json:"photoUrl"`
	Latitude          *float64               `json:"latitude,omitempty"`
	Longitude         *float64               `json:"longitude,omitempty"`
	CellToken         string                 `json:"cellToken,omitempty"`
	ContractorSignals []string               `json:"contractorSignals"`
	RealEstateSignals []string               `json:"realEstateSignals"`
	OccupancyStatus   models.OccupancyStatus `json:"occupancyStatus,omitempty"`
	CreatedAt         time.Time              `json:"createdAt"`
}

type SNSPublisher struct {
	client   SNSService
	topicARN string
	logger   logger.Logger
}

func NewSNSPublisher(ctx context.Context, region, topicARN string, log logger.Logger) (*SNSPublisher, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSNSPublisherWithClient(sns.NewFromConfig(cfg), topicARN, log), nil
}

func NewSNSPublisherWithClient(client SNSService, topicARN string, log logger.Logger) *SNSPublisher {
	return &SNSPublisher{
		client:   client,
		topicARN: topicARN,
		logger:   log.WithFields(map[string]interface{}{"component": "sns-publisher"}),
	}
}

func (p *SNSPublisher) PublishSubmissionCreated(ctx context.Context, rec *models.SubmissionRecord) error {
	body, err := json.Marshal(SubmissionEvent{
		Event:             EventSubmissionCreated,
		SubmissionID:      rec.ID,
		UserID:            rec.UserID,
		PhotoURL:          rec.PhotoURL,
		Latitude:          rec.Latitude,
		Longitude:         rec.Longitude,
		CellToken:         rec.CellToken,
		ContractorSignals: rec.ContractorSignals,
		RealEstateSignals: rec.RealEstateSignals,
		OccupancyStatus:   rec.OccupancyStatus,
		CreatedAt:         rec.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	out, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event": {
				DataType:    aws.String("String"),
				StringValue: aws.String(EventSubmissionCreated),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}

	p.logger.Info("submission event published", map[string]interface{}{
		"submissionId": rec.ID,
		"messageId":    aws.ToString(out.MessageId),
	})
	return nil
}
