package aws

import (
	"context"
	"errors"
	"testing"

	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-idempotent-payflow/internal/testutil"
)

func TestPublisher_SendJSON(t *testing.T) {
	q := &testutil.FakeSQS{}
	p := NewPublisher(q, "https://sqs.local/queue")

	err := p.SendJSON(context.Background(), map[string]string{"order_id": "ORDER0001"}, map[string]string{
		"event_name": "ORDER_PLACED",
		"empty":      "",
	})
	require.NoError(t, err)
	require.Len(t, q.Sent, 1)

	sent := q.Sent[0]
	assert.Equal(t, "https://sqs.local/queue", *sent.QueueUrl)
	assert.JSONEq(t, `{"order_id":"ORDER0001"}`, *sent.MessageBody)
	assert.Equal(t, "ORDER_PLACED", *sent.MessageAttributes["event_name"].StringValue)
	assert.NotContains(t, sent.MessageAttributes, "empty")
}

func TestPublisher_SendError(t *testing.T) {
	q := &testutil.FakeSQS{Err: errors.New("queue down")}
	err := NewPublisher(q, "u").SendMessage(context.Background(), "{}", nil)
	assert.ErrorContains(t, err, "send message")
}

func TestMetricsPublisher_PutCounts(t *testing.T) {
	cw := &testutil.FakeCloudWatch{}
	m := NewMetricsPublisher(cw, "OrderPayFlow")

	err := m.PutCounts(context.Background(), map[string]float64{"Retried": 1, "Handled": 3}, map[string]string{"Function": "worker"})
	require.NoError(t, err)
	require.Len(t, cw.Calls, 1)

	in := cw.Calls[0]
	assert.Equal(t, "OrderPayFlow", *in.Namespace)
	require.Len(t, in.MetricData, 2)
	assert.Equal(t, "Handled", *in.MetricData[0].MetricName)
	assert.Equal(t, 3.0, *in.MetricData[0].Value)
	assert.Equal(t, cwtypes.StandardUnitCount, in.MetricData[0].Unit)
	assert.Equal(t, "worker", *in.MetricData[1].Dimensions[0].Value)

	require.NoError(t, m.PutCounts(context.Background(), nil, nil))
	assert.Len(t, cw.Calls, 1)
}
