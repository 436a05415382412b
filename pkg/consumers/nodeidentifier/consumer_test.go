/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package nodeidentifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/nodeidentifier/pkg/logger"
	"github.com/carverauto/nodeidentifier/pkg/models"
)

type fakeMsg struct {
	jetstream.Msg
	data      []byte
	delivered uint64
	seq       uint64
	acked     bool
	naked     bool
}

func (m *fakeMsg) Data() []byte    { return m.data }
func (m *fakeMsg) Subject() string { return "events.raw" }

func (m *fakeMsg) Metadata() (*jetstream.MsgMetadata, error) {
	return &jetstream.MsgMetadata{
		Stream:       "events",
		Sequence:     jetstream.SequencePair{Stream: m.seq},
		NumDelivered: m.delivered,
	}, nil
}

func (m *fakeMsg) Ack() error {
	m.acked = true
	return nil
}

func (m *fakeMsg) Nak() error {
	m.naked = true
	return nil
}

type deadLetter struct {
	reason string
	cause  error
	msgID  string
}

type fakeProcessor struct {
	err         error
	dlErr       error
	msgIDs      []string
	deadLetters []deadLetter
}

func (f *fakeProcessor) Process(_ context.Context, _ []byte, msgID string) (Outcome, error) {
	f.msgIDs = append(f.msgIDs, msgID)

	if f.err != nil {
		return "", f.err
	}

	return OutcomeAttributed, nil
}

func (f *fakeProcessor) DeadLetter(_ context.Context, reason string, cause error, _ []byte, msgID string) error {
	f.deadLetters = append(f.deadLetters, deadLetter{reason: reason, cause: cause, msgID: msgID})

	return f.dlErr
}

type fakePullConsumer struct {
	err   error
	msgs  []jetstream.Msg
	calls int
}

func (f *fakePullConsumer) Fetch(int, ...jetstream.FetchOpt) (jetstream.MessageBatch, error) {
	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	ch := make(chan jetstream.Msg, len(f.msgs))
	for _, msg := range f.msgs {
		ch <- msg
	}

	f.msgs = nil
	close(ch)

	return &fakeMessageBatch{ch: ch}, nil
}

type fakeMessageBatch struct {
	ch  chan jetstream.Msg
	err error
}

func (f *fakeMessageBatch) Messages() <-chan jetstream.Msg {
	return f.ch
}

func (f *fakeMessageBatch) Error() error {
	return f.err
}

func newTestConsumer(pull pullConsumer) *Consumer {
	return &Consumer{
		streamName:   "events",
		consumerName: "node-identifier",
		maxDeliver:   3,
		consumer:     pull,
		metrics:      NewMetrics(prometheus.NewRegistry()),
		logger:       logger.NewTestLogger(),
	}
}

func TestHandleMessageAcksProcessedMessage(t *testing.T) {
	c := newTestConsumer(nil)
	proc := &fakeProcessor{}
	msg := &fakeMsg{data: []byte("{}"), delivered: 1, seq: 17}

	c.handleMessage(context.Background(), msg, proc)

	assert.True(t, msg.acked)
	assert.False(t, msg.naked)
	assert.Equal(t, []string{"events-17"}, proc.msgIDs)
}

func TestHandleMessageNaksRetryableFailure(t *testing.T) {
	c := newTestConsumer(nil)
	proc := &fakeProcessor{err: errors.New("storage down")}
	msg := &fakeMsg{delivered: 2, seq: 3}

	c.handleMessage(context.Background(), msg, proc)

	assert.True(t, msg.naked)
	assert.False(t, msg.acked)
	assert.Empty(t, proc.deadLetters)
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.RedeliveryTotal), 0)
}

func TestHandleMessageDeadLettersAfterMaxDeliver(t *testing.T) {
	c := newTestConsumer(nil)
	cause := errors.New("storage down")
	proc := &fakeProcessor{err: cause}
	msg := &fakeMsg{delivered: 3, seq: 9}

	c.handleMessage(context.Background(), msg, proc)

	assert.True(t, msg.acked)
	assert.False(t, msg.naked)
	require.Len(t, proc.deadLetters, 1)
	assert.Equal(t, ReasonMaxDeliver, proc.deadLetters[0].reason)
	assert.Equal(t, "events-9", proc.deadLetters[0].msgID)
	require.ErrorIs(t, proc.deadLetters[0].cause, cause)
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.MessagesTotal.WithLabelValues(string(OutcomeDeadLettered))), 0)
}

func TestHandleMessageNaksWhenDeadLetterFails(t *testing.T) {
	c := newTestConsumer(nil)
	proc := &fakeProcessor{err: errors.New("storage down"), dlErr: errors.New("publish failed")}
	msg := &fakeMsg{delivered: 5}

	c.handleMessage(context.Background(), msg, proc)

	assert.True(t, msg.naked)
	assert.False(t, msg.acked)
}

func TestProcessMessagesReturnsFatalError(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "connection closed", err: nats.ErrConnectionClosed},
		{name: "consumer deleted", err: jetstream.ErrConsumerDeleted},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestConsumer(&fakePullConsumer{err: tc.err})

			err := c.ProcessMessages(context.Background(), &fakeProcessor{})
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestProcessMessagesStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pull := &fakePullConsumer{err: nats.ErrTimeout}
	c := newTestConsumer(pull)

	done := make(chan error, 1)

	go func() { done <- c.ProcessMessages(ctx, &fakeProcessor{}) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after cancel")
	}
}

func TestProcessMessagesHandlesFetchedBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs := []*fakeMsg{{seq: 1, delivered: 1}, {seq: 2, delivered: 1}}
	pull := &fakePullConsumer{}

	for _, m := range msgs {
		pull.msgs = append(pull.msgs, m)
	}

	proc := &fakeProcessor{}
	c := newTestConsumer(pull)

	// Cancel after the first fetch; its batch is still handled.
	c.consumer = fetchThenCancel{pullConsumer: pull, cancel: cancel}

	require.NoError(t, c.ProcessMessages(ctx, proc))
	assert.Equal(t, []string{"events-1", "events-2"}, proc.msgIDs)

	for _, m := range msgs {
		assert.True(t, m.acked)
	}
}

type fetchThenCancel struct {
	pullConsumer
	cancel context.CancelFunc
}

func (f fetchThenCancel) Fetch(n int, opts ...jetstream.FetchOpt) (jetstream.MessageBatch, error) {
	batch, err := f.pullConsumer.Fetch(n, opts...)
	f.cancel()

	return batch, err
}

func TestConsumerConfig(t *testing.T) {
	cfg := &Config{
		ConsumerName: "node-identifier",
		Subjects:     []string{"events.raw"},
		MaxDeliver:   4,
		AckWait:      models.Duration(10 * time.Second),
	}

	cc := consumerConfig(cfg)
	assert.Equal(t, "node-identifier", cc.Durable)
	assert.Equal(t, jetstream.AckExplicitPolicy, cc.AckPolicy)
	assert.Equal(t, 10*time.Second, cc.AckWait)
	assert.Equal(t, 4, cc.MaxDeliver)
	assert.Equal(t, "events.raw", cc.FilterSubject)
	assert.Empty(t, cc.FilterSubjects)

	cfg.Subjects = []string{"events.raw", "assets.observed"}
	cc = consumerConfig(cfg)
	assert.Empty(t, cc.FilterSubject)
	assert.Equal(t, cfg.Subjects, cc.FilterSubjects)
}
