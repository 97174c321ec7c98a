package aws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"scoutly/internal/common/logger"
	"scoutly/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

func TestSNSPublisher_PublishSubmissionCreated(t *testing.T) {
	var captured *sns.PublishInput
	mock := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			captured = params
			return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
		},
	}

	lat, lon := 40.6, -75.4
	rec := &models.SubmissionRecord{
		ID:                "sub-1",
		UserID:            "user-1",
		PhotoURL:          "https://cdn/u/1.jpg",
		Latitude:          &lat,
		Longitude:         &lon,
		ContractorSignals: []string{"Roof Damage"},
		RealEstateSignals: []string{},
		CreatedAt:         time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	p := NewSNSPublisherWithClient(mock, "arn:aws:sns:us-east-1:123:submissions", logger.NewTestLogger(t))
	require.NoError(t, p.PublishSubmissionCreated(context.Background(), rec))

	require.NotNil(t, captured)
	assert.Equal(t, "arn:aws:sns:us-east-1:123:submissions", aws.ToString(captured.TopicArn))
	assert.Equal(t, EventSubmissionCreated, aws.ToString(captured.MessageAttributes["event"].StringValue))

	var ev SubmissionEvent
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(captured.Message)), &ev))
	assert.Equal(t, "sub-1", ev.SubmissionID)
	assert.Equal(t, []string{"Roof Damage"}, ev.ContractorSignals)
}

func TestSNSPublisher_PublishError(t *testing.T) {
	mock := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	p := NewSNSPublisherWithClient(mock, "arn", logger.NewTestLogger(t))
	err := p.PublishSubmissionCreated(context.Background(), &models.SubmissionRecord{ID: "s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}
