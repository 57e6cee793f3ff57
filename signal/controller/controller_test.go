package controller_test

import (
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screenshare/broker"
	"screenshare/broker/subscription"
	"screenshare/coordinator"
	"screenshare/database/memory"
	"screenshare/metric"
	"screenshare/pkg/socket"
	"screenshare/presence"
	"screenshare/room"
	"screenshare/signal/controller"
	"screenshare/signal/signaling"
	"screenshare/types/client/response"
)

func newController(t *testing.T) (*controller.Controller, *room.Directory, *broker.Broker) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	entry := logrus.NewEntry(logger)

	m := metric.New(metric.Config{}, entry)
	b := broker.New(broker.Config{QueueSize: 16, DropPolicy: subscription.DropNew})
	db := memory.New()
	d := room.NewDirectory(room.Config{MaxMembers: 1}, presence.New(b, m, entry))
	co := coordinator.New(coordinator.Config{}, b, db, d, m, entry)
	return controller.New(co, signaling.New(db, b, m, entry), entry, false), d, b
}

// script makes the socket return the given raw messages in order, followed by err.
func script(s *socket.MockSocket, err error, messages ...string) {
	calls := make([]*gomock.Call, 0, len(messages)+1)
	for _, raw := range messages {
		raw := raw
		calls = append(calls, s.EXPECT().ReadMessage().Return([]byte(raw), nil))
	}
	calls = append(calls, s.EXPECT().ReadMessage().Return(nil, err))
	gomock.InOrder(calls...)
}

type written struct {
	mu       sync.Mutex
	messages []any
}

func (w *written) capture(s *socket.MockSocket) {
	s.EXPECT().WriteJSON(gomock.Any()).DoAndReturn(func(v any) error {
		w.mu.Lock()
		defer w.mu.Unlock()
		w.messages = append(w.messages, v)
		return nil
	}).AnyTimes()
}

func TestProcess(t *testing.T) {
	normalClose := &websocket.CloseError{Code: websocket.CloseNormalClosure}

	t.Run("given a join when processed then connected and room-joined are written", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		s := socket.NewMockSocket(ctrl)
		s.EXPECT().RemoteAddr().Return("127.0.0.1:1")
		w := &written{}
		w.capture(s)
		script(s, normalClose, `{"type":"join-room","payload":{"roomId":"r1","nickname":"Alice"}}`)

		c, d, b := newController(t)
		require.NoError(t, c.Process(s))

		require.Len(t, w.messages, 2)
		connected, ok := w.messages[0].(*response.Connected)
		require.True(t, ok)
		assert.Equal(t, &response.RoomJoined{
			Type:         response.ROOM_JOINED,
			RoomID:       "r1",
			SocketID:     connected.SocketID,
			Peers:        []response.Peer{},
			SharingUsers: []string{},
		}, w.messages[1])

		assert.False(t, d.Exists("r1"))
		assert.Zero(t, b.Len())
	})

	t.Run("given protocol violations when processed then error replies are written", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		s := socket.NewMockSocket(ctrl)
		s.EXPECT().RemoteAddr().Return("127.0.0.1:1")
		w := &written{}
		w.capture(s)
		script(s, normalClose,
			`{"type":"dance"}`,
			`{"type":"join-room","payload":{"nickname":"Alice"}}`,
			`{"type":"start-sharing"}`,
			`{"type":"offer","payload":{"offer":{"type":"offer","sdp":"v=0"}}}`,
			`{"type":"join-room","payload":"r1"}`,
			`not json`,
		)

		c, _, _ := newController(t)
		require.NoError(t, c.Process(s))

		require.Len(t, w.messages, 7)
		codes := make([]string, 0, 6)
		requests := make([]string, 0, 6)
		for _, m := range w.messages[1:] {
			e, ok := m.(*response.Error)
			require.True(t, ok)
			assert.Equal(t, response.ERROR, e.Type)
			codes = append(codes, e.Code)
			requests = append(requests, e.Request)
		}
		assert.Equal(t, []string{
			response.CodeUnknownType,
			response.CodeBadRequest,
			response.CodeNotInRoom,
			response.CodeBadRequest,
			response.CodeBadRequest,
			response.CodeBadRequest,
		}, codes)
		assert.Equal(t, []string{"dance", "join-room", "start-sharing", "offer", "join-room", ""}, requests)
	})

	t.Run("given truncated and empty frames when processed then bad-request is written and the connection stays usable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		s := socket.NewMockSocket(ctrl)
		s.EXPECT().RemoteAddr().Return("127.0.0.1:1")
		w := &written{}
		w.capture(s)
		script(s, normalClose,
			`{"type":"join-room"`,
			``,
			`{"type":"join-room","payload":{"roomId":"r1","nickname":"Alice"}}`,
		)

		c, d, _ := newController(t)
		require.NoError(t, c.Process(s))

		require.Len(t, w.messages, 4)
		for _, m := range w.messages[1:3] {
			e, ok := m.(*response.Error)
			require.True(t, ok)
			assert.Equal(t, response.CodeBadRequest, e.Code)
		}
		joined, ok := w.messages[3].(*response.RoomJoined)
		require.True(t, ok)
		assert.Equal(t, "r1", joined.RoomID)
		assert.False(t, d.Exists("r1"))
	})

	t.Run("given a relay to an unknown target when processed then nothing is written back", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		s := socket.NewMockSocket(ctrl)
		s.EXPECT().RemoteAddr().Return("127.0.0.1:1")
		w := &written{}
		w.capture(s)
		script(s, normalClose, `{"type":"ice-candidate","payload":{"candidate":{"candidate":""},"to":"ghost"}}`)

		c, _, _ := newController(t)
		require.NoError(t, c.Process(s))

		require.Len(t, w.messages, 1)
		assert.IsType(t, &response.Connected{}, w.messages[0])
	})

	t.Run("given a full room when joined then room-full is written", func(t *testing.T) {
		c, d, _ := newController(t)
		_, err := d.Join("r1", room.Member{ID: "someone", Nickname: "Someone"})
		require.NoError(t, err)

		ctrl := gomock.NewController(t)
		s := socket.NewMockSocket(ctrl)
		s.EXPECT().RemoteAddr().Return("127.0.0.1:1")
		w := &written{}
		w.capture(s)
		script(s, normalClose, `{"type":"join-room","payload":{"roomId":"r1","nickname":"Alice"}}`)

		require.NoError(t, c.Process(s))

		require.Len(t, w.messages, 2)
		e, ok := w.messages[1].(*response.Error)
		require.True(t, ok)
		assert.Equal(t, response.CodeRoomFull, e.Code)
		assert.Equal(t, []room.Member{{ID: "someone", Nickname: "Someone"}}, d.Members("r1"))
	})

	t.Run("given an abnormal close when processed then return the error and clean up", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		s := socket.NewMockSocket(ctrl)
		s.EXPECT().RemoteAddr().Return("127.0.0.1:1")
		w := &written{}
		w.capture(s)
		script(s, &websocket.CloseError{Code: websocket.CloseAbnormalClosure},
			`{"type":"join-room","payload":{"roomId":"r1","nickname":"Alice"}}`,
			`{"type":"start-sharing","payload":{"roomId":"r1"}}`,
		)

		c, d, b := newController(t)
		err := c.Process(s)

		var closeErr *websocket.CloseError
		assert.True(t, errors.As(err, &closeErr))
		assert.Zero(t, d.Len())
		assert.Zero(t, d.Sharers())
		assert.Zero(t, b.Len())
	})

	t.Run("given a failing write when processed then the socket is closed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		s := socket.NewMockSocket(ctrl)
		s.EXPECT().RemoteAddr().Return("127.0.0.1:1")
		closed := make(chan struct{})
		s.EXPECT().WriteJSON(gomock.Any()).Return(errors.New("broken pipe"))
		s.EXPECT().Close().DoAndReturn(func() error {
			close(closed)
			return nil
		})
		s.EXPECT().ReadMessage().DoAndReturn(func() ([]byte, error) {
			<-closed
			return nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
		})

		c, _, b := newController(t)
		require.NoError(t, c.Process(s))
		assert.Zero(t, b.Len())
	})
}
