package aws

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// MetricsPublisher pushes count metrics to CloudWatch under one namespace.
type MetricsPublisher struct {
	CloudWatch CloudWatchAPI
	Namespace  string
}

func NewMetricsPublisher(cw CloudWatchAPI, namespace string) *MetricsPublisher {
	return &MetricsPublisher{CloudWatch: cw, Namespace: namespace}
}

// PutCounts publishes one Count datum per entry in counts, all sharing dimensions.
func (m *MetricsPublisher) PutCounts(ctx context.Context, counts map[string]float64, dimensions map[string]string) error {
	if len(counts) == 0 {
		return nil
	}

	dims := make([]cwtypes.Dimension, 0, len(dimensions))
	for _, k := range sortedKeys(dimensions) {
		dims = append(dims, cwtypes.Dimension{Name: awsString(k), Value: awsString(dimensions[k])})
	}

	data := make([]cwtypes.MetricDatum, 0, len(counts))
	for _, name := range sortedKeys(counts) {
		v := counts[name]
		data = append(data, cwtypes.MetricDatum{
			MetricName: awsString(name),
			Value:      &v,
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: dims,
		})
	}

	_, err := m.CloudWatch.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  awsString(m.Namespace),
		MetricData: data,
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
