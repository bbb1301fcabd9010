package metrics

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	namespace                = "Vibify/API"
	httpStatusServerError    = 500
	cloudwatchTimeoutSeconds = 5
)

// putMetricAPI is the slice of the CloudWatch client used here
type putMetricAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Client wraps CloudWatch client for custom metrics
type Client struct {
	client      putMetricAPI
	enabled     bool
	environment string
	async       bool
}

// NewClient creates a new CloudWatch metrics client. It is only enabled in production.
func NewClient(ctx context.Context, environment, region string) (*Client, error) {
	if environment != "production" {
		log.Printf("📊 CloudWatch Metrics: DISABLED (environment: %s)", environment)
		return &Client{
			enabled:     false,
			environment: environment,
		}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		log.Printf("⚠️  Failed to load AWS config for CloudWatch: %v", err)
		return &Client{enabled: false, environment: environment}, nil
	}

	log.Printf("📊 CloudWatch Metrics: ✅ ENABLED (namespace: %s)", namespace)

	return &Client{
		client:      cloudwatch.NewFromConfig(cfg),
		enabled:     true,
		environment: environment,
		async:       true,
	}, nil
}

// Enabled reports whether metrics are sent
func (m *Client) Enabled() bool {
	return m.enabled
}

// RecordAPIRequest records an API request metric
func (m *Client) RecordAPIRequest(endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	m.send(func(ctx context.Context) {
		metricName := "APIRequests"
		if statusCode >= httpStatusServerError {
			metricName = "APIErrors"
		}

		dimensions := m.dimensions("Endpoint", endpoint)
		m.putOrLog(ctx, metricName, 1, types.StandardUnitCount, dimensions)
		m.putOrLog(ctx, "APILatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dimensions)
	})
}

// RecordAnalysis records analysis completion, detected notes and latency
func (m *Client) RecordAnalysis(_ context.Context, duration time.Duration, noteCount int, success bool) {
	if !m.enabled {
		return
	}

	m.send(func(ctx context.Context) {
		dimensions := m.dimensions("Success", boolToString(success))
		m.putOrLog(ctx, "AnalysisCompleted", 1, types.StandardUnitCount, dimensions)
		m.putOrLog(ctx, "AnalysisLatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dimensions)
		if success {
			m.putOrLog(ctx, "NotesDetected", float64(noteCount), types.StandardUnitCount, dimensions)
		}
	})
}

// RecordRecommendation records recommendation latency per model
func (m *Client) RecordRecommendation(_ context.Context, model string, duration time.Duration, success bool) {
	if !m.enabled {
		return
	}

	m.send(func(ctx context.Context) {
		dimensions := append(m.dimensions("Model", model), types.Dimension{
			Name:  aws.String("Success"),
			Value: aws.String(boolToString(success)),
		})
		m.putOrLog(ctx, "RecommendationLatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dimensions)
	})
}

// RecordTokenUsage records LLM token usage
func (m *Client) RecordTokenUsage(_ context.Context, model string, totalTokens, inputTokens, outputTokens, reasoningTokens int) {
	if !m.enabled {
		return
	}

	m.send(func(ctx context.Context) {
		dimensions := m.dimensions("Model", model)
		m.putOrLog(ctx, "LLMTokens/Total", float64(totalTokens), types.StandardUnitCount, dimensions)
		m.putOrLog(ctx, "LLMTokens/Input", float64(inputTokens), types.StandardUnitCount, dimensions)
		m.putOrLog(ctx, "LLMTokens/Output", float64(outputTokens), types.StandardUnitCount, dimensions)
		if reasoningTokens > 0 {
			m.putOrLog(ctx, "LLMTokens/Reasoning", float64(reasoningTokens), types.StandardUnitCount, dimensions)
		}
	})
}

func (m *Client) send(fn func(ctx context.Context)) {
	if m.async {
		go fn(context.Background())
		return
	}
	fn(context.Background())
}

func (m *Client) dimensions(name, value string) []types.Dimension {
	return []types.Dimension{
		{
			Name:  aws.String(name),
			Value: aws.String(value),
		},
		{
			Name:  aws.String("Environment"),
			Value: aws.String(m.environment),
		},
	}
}

func (m *Client) putOrLog(ctx context.Context, metricName string, value float64, unit types.StandardUnit, dimensions []types.Dimension) {
	if err := m.putMetric(ctx, metricName, value, unit, dimensions); err != nil {
		log.Printf("Failed to record %s metric: %v", metricName, err)
	}
}

// putMetric sends a metric to CloudWatch
func (m *Client) putMetric(
	ctx context.Context,
	metricName string,
	value float64,
	unit types.StandardUnit,
	dimensions []types.Dimension,
) error {
	if !m.enabled || m.client == nil {
		return nil
	}

	cwCtx, cancel := context.WithTimeout(ctx, cloudwatchTimeoutSeconds*time.Second)
	defer cancel()

	_, err := m.client.PutMetricData(cwCtx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Value:      aws.Float64(value),
				Unit:       unit,
				Timestamp:  aws.Time(time.Now()),
				Dimensions: dimensions,
			},
		},
	})

	return err
}

func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
