package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/loomhq/loom/core/task"
	"github.com/loomhq/loom/internal/dispatch/mocks"
	"github.com/loomhq/loom/internal/metrics"
	"github.com/loomhq/loom/internal/pubsub"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recordingSubscriber struct {
	events []*Event
}

func (s *recordingSubscriber) ConsumeEvent(e *Event) error {
	s.events = append(s.events, e)
	return nil
}

func testTaskConfig(t *testing.T) *task.TaskConfig {
	results, err := task.NewProvisionerResults(map[string]any{"stale": true})
	require.NoError(t, err)

	node := task.NodeProperties{
		Hostname:   "web-1",
		IPAddress:  "10.0.0.5",
		NodeNum:    1,
		SSHUser:    "ubuntu",
		Automators: task.NewStringSet("chef"),
		Services:   task.NewStringSet("hadoop"),
	}
	return task.NewTaskConfig(
		node,
		task.Provider{Name: "aws-east", ProviderType: "ec2"},
		map[string]task.NodeProperties{"web-1": node},
		task.TaskServiceAction{Service: "hadoop", Action: task.ActionInstall, Automator: "chef"},
		json.RawMessage(`{"name": "cluster-a"}`),
		results,
	)
}

func testExchanger(t *testing.T, transport Transport) (*Exchanger, *recordingSubscriber) {
	logger := zerolog.Nop()
	publisher := pubsub.NewSimplePublisher[Event]()
	subscriber := &recordingSubscriber{}
	publisher.AddSubscriber(subscriber)
	return NewExchanger(transport, publisher, metrics.New(prometheus.NewRegistry()), &logger), subscriber
}

// worker adds a result and removes another, the way a provisioner worker reports back.
func worker(_ context.Context, doc []byte) ([]byte, error) {
	d, err := task.ParseDocument(doc)
	if err != nil {
		return nil, err
	}
	d.Remove("stale")
	if err := d.Set("cert_fingerprint", "ab:cd"); err != nil {
		return nil, err
	}
	return d.MarshalJSON()
}

func TestExchange(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	cfg := testTaskConfig(t)

	sent, err := task.Marshal(cfg)
	require.NoError(t, err)
	transport.EXPECT().RoundTrip(gomock.Any(), gomock.Eq(sent)).DoAndReturn(worker)

	e, subscriber := testExchanger(t, transport)
	next, err := e.Exchange(context.Background(), cfg)
	require.NoError(t, err)

	assert.True(t, next.FixedEqual(cfg))
	assert.Equal(t, []string{"cert_fingerprint"}, next.ProvisionerResults().Keys())

	require.Len(t, subscriber.events, 1)
	event := subscriber.events[0]
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "web-1", event.Node)
	assert.Equal(t, task.ActionInstall, event.Action)
	assert.Nil(t, event.Err)
	assert.ElementsMatch(t, []task.ResultChange{
		{Op: "add", Path: "/cert_fingerprint"},
		{Op: "remove", Path: "/stale"},
	}, event.Changes)
}

func TestExchangeTransportError(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	transport.EXPECT().RoundTrip(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

	e, subscriber := testExchanger(t, transport)
	_, err := e.Exchange(context.Background(), testTaskConfig(t))

	var cerr *CommunicationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "web-1", cerr.Node)
	require.Len(t, subscriber.events, 1)
	assert.Equal(t, err, subscriber.events[0].Err)
}

func TestExchangeMalformedResponse(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	transport.EXPECT().RoundTrip(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, doc []byte) ([]byte, error) {
			d, err := task.ParseDocument(doc)
			if err != nil {
				return nil, err
			}
			d.Remove(task.KeyNodes)
			return d.MarshalJSON()
		},
	)

	e, _ := testExchanger(t, transport)
	_, err := e.Exchange(context.Background(), testTaskConfig(t))

	var cerr *CommunicationError
	require.True(t, errors.As(err, &cerr))
	var perr *task.ProtocolError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, task.KeyNodes, perr.Key)
	assert.ErrorIs(t, err, task.ErrMissingKey)
}

func withServiceAction(cfg *task.TaskConfig, action task.TaskServiceAction) *task.TaskConfig {
	return task.NewTaskConfig(
		cfg.NodeProperties(),
		cfg.Provider(),
		cfg.Nodes(),
		action,
		cfg.ClusterConfig(),
		cfg.ProvisionerResults(),
	)
}

func TestExchangeNodeLevelAction(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	transport.EXPECT().RoundTrip(gomock.Any(), gomock.Any()).DoAndReturn(worker).Times(1)

	cfg := withServiceAction(testTaskConfig(t), task.TaskServiceAction{Action: task.ActionBootstrap})
	e, subscriber := testExchanger(t, transport)
	next, err := e.Exchange(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, task.ActionBootstrap, next.ServiceAction().Action)
	require.Len(t, subscriber.events, 1)
	assert.Equal(t, task.ActionBootstrap, subscriber.events[0].Action)
}

func TestExchangeUnlistedAction(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	transport.EXPECT().RoundTrip(gomock.Any(), gomock.Any()).DoAndReturn(worker).Times(1)

	cfg := withServiceAction(testTaskConfig(t), task.TaskServiceAction{Service: "hadoop", Action: "rolling-restart"})
	e, _ := testExchanger(t, transport)
	next, err := e.Exchange(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, task.ActionType("rolling-restart"), next.ServiceAction().Action)
}

func TestExchangeWithoutAction(t *testing.T) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)

	cfg := withServiceAction(testTaskConfig(t), task.TaskServiceAction{Service: "hadoop"})
	e, _ := testExchanger(t, transport)
	_, err := e.Exchange(context.Background(), cfg)
	assert.NotNil(t, err)
}

func TestLoggingSubscriber(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	s := NewLoggingSubscriber(&logger)

	err := s.ConsumeEvent(&Event{
		ID:      "id-1",
		Node:    "web-1",
		Service: "hadoop",
		Action:  task.ActionStart,
		Changes: []task.ResultChange{{Op: "add", Path: "/cert_fingerprint"}},
	})
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "web-1", line["node"])
	assert.Equal(t, []any{"add /cert_fingerprint"}, line["result_changes"])

	buf.Reset()
	require.NoError(t, s.ConsumeEvent(&Event{ID: "id-2", Node: "web-1", Err: errors.New("boom")}))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "boom", line["error"])
}

func TestExchangeWithoutLoggerOrMetrics(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	transport.EXPECT().RoundTrip(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

	publisher := pubsub.NewSimplePublisher[Event]()
	publisher.AddSubscriber(NewLoggingSubscriber(nil))
	e := NewExchanger(transport, publisher, nil, nil)

	_, err := e.Exchange(context.Background(), testTaskConfig(t))
	var cerr *CommunicationError
	require.True(t, errors.As(err, &cerr))
	assert.Contains(t, buf.String(), "connection refused")
}
