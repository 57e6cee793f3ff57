package signaling_test

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screenshare/broker"
	"screenshare/broker/subscription"
	"screenshare/database/memory"
	"screenshare/metric"
	"screenshare/signal/signaling"
	"screenshare/types/client/response"
)

func newSignaler(t *testing.T, publisher broker.Publisher, ids ...string) *signaling.Signaler {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	entry := logrus.NewEntry(logger)

	db := memory.New()
	for _, id := range ids {
		_, err := db.CreateConnectionInfo(id, "127.0.0.1:1")
		require.NoError(t, err)
	}
	return signaling.New(db, publisher, metric.New(metric.Config{}, entry), entry)
}

func TestRelay(t *testing.T) {
	payload := json.RawMessage(`{"type":"offer","sdp":"v=0\r\n"}`)

	tests := []struct {
		name string
		kind string
		want any
	}{
		{
			name: "given an offer when relayed then target receives it from the sender",
			kind: "offer",
			want: &response.Offer{Type: response.OFFER, Offer: payload, From: "a"},
		},
		{
			name: "given an answer when relayed then target receives it from the sender",
			kind: "answer",
			want: &response.Answer{Type: response.ANSWER, Answer: payload, From: "a"},
		},
		{
			name: "given an ice candidate when relayed then target receives it from the sender",
			kind: "ice-candidate",
			want: &response.ICECandidate{Type: response.ICE_CANDIDATE, Candidate: payload, From: "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			publisher := broker.NewMockPublisher(ctrl)
			publisher.EXPECT().Publish(broker.Detail("b"), tt.want).Return(nil)

			s := newSignaler(t, publisher, "a", "b")
			assert.NoError(t, s.Relay(tt.kind, payload, "a", "b"))
		})
	}

	t.Run("given an unknown kind when relayed then return ErrInvalidKind", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		s := newSignaler(t, broker.NewMockPublisher(ctrl), "a", "b")
		assert.ErrorIs(t, s.Relay("bye", payload, "a", "b"), signaling.ErrInvalidKind)
	})

	t.Run("given an unknown target when relayed then return ErrTargetNotFound", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		s := newSignaler(t, broker.NewMockPublisher(ctrl), "a")
		assert.ErrorIs(t, s.Relay("offer", payload, "a", "ghost"), signaling.ErrTargetNotFound)
	})

	t.Run("given a registered target without queue when relayed then return ErrTargetNotFound", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		publisher := broker.NewMockPublisher(ctrl)
		publisher.EXPECT().Publish(broker.Detail("b"), gomock.Any()).Return(broker.ErrNoSubscriber)

		s := newSignaler(t, publisher, "a", "b")
		assert.ErrorIs(t, s.Relay("answer", payload, "a", "b"), signaling.ErrTargetNotFound)
	})

	t.Run("given a full target queue when relayed then drop without error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		publisher := broker.NewMockPublisher(ctrl)
		publisher.EXPECT().Publish(broker.Detail("b"), gomock.Any()).Return(broker.ErrDropped)

		s := newSignaler(t, publisher, "a", "b")
		assert.NoError(t, s.Relay("ice-candidate", payload, "a", "b"))
	})
}

func TestRelayDeliversOnlyToTarget(t *testing.T) {
	b := broker.New(broker.Config{QueueSize: 4, DropPolicy: subscription.DropNew})
	subs := map[string]*subscription.Subscription{}
	for _, id := range []string{"a", "b", "c"} {
		sub, err := b.Subscribe(broker.Detail(id))
		require.NoError(t, err)
		subs[id] = sub
	}
	s := newSignaler(t, b, "a", "b", "c")

	payload := json.RawMessage(`{"candidate":"candidate:1 1 udp 2122260223 10.0.0.1 54321 typ host","sdpMid":"0"}`)
	require.NoError(t, s.Relay("ice-candidate", payload, "a", "c"))

	assert.Zero(t, subs["a"].Len())
	assert.Zero(t, subs["b"].Len())
	require.Equal(t, 1, subs["c"].Len())

	got := (<-subs["c"].Receive()).(*response.ICECandidate)
	assert.Equal(t, "a", got.From)
	assert.JSONEq(t, string(payload), string(got.Candidate))
	assert.Equal(t, []byte(payload), []byte(got.Candidate))
}
