// Package gateway exposes the chat service over websockets.
// It translates JSON commands into service calls and forwards the hub events
// relevant to where each session currently is.
package gateway

import (
	"chat-hub/domain"
	chaterrors "chat-hub/errors"
	"chat-hub/projection"
	"chat-hub/services"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

const writeWait = 10 * time.Second

// scopedOps act on the scope the session is currently in.
var scopedOps = []string{OpSend, OpEdit, OpClear, OpSearch}

type Server struct {
	service              services.IChatService
	upgrader             websocket.Upgrader
	connectionBufferSize int
	log                  *slog.Logger
}

func NewServer(log *slog.Logger, service services.IChatService, connectionBufferSize int) *Server {
	return &Server{
		service:              service,
		connectionBufferSize: max(connectionBufferSize, 1),
		log:                  log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and serves the connection until the client leaves.
// The display name is given by the user query parameter.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	session := domain.SessionID(uuid.NewString())
	user := r.URL.Query().Get("user")
	sink := NewSink(s.connectionBufferSize, func() (domain.Participant, error) {
		return s.service.Participant(session)
	})
	if err := s.service.Connect(session, user, sink); err != nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteJSON(toErrorFrame("connect", err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		if err := s.service.Disconnect(context.Background(), session); err != nil {
			s.log.Warn("Disconnect failed", "session", session, "error", err)
		}
		s.log.Info("Client disconnected", "session", session, "user", user)
	}()
	s.log.Info("Client connected", "session", session, "user", user)

	replies := make(chan Frame, s.connectionBufferSize)
	replies <- Frame{Type: TypeReply, Op: "connect", Session: string(session), Rooms: s.service.ListRooms(), Users: s.service.Users()}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.write(ctx, conn, session, sink, replies)
		// Unblocks the reader when the writer gave up first.
		_ = conn.Close()
	}()

	s.read(ctx, conn, session, sink.view, replies)
	cancel()
	<-done
}

// read handles commands one at a time, in arrival order.
func (s *Server) read(ctx context.Context, conn *websocket.Conn, session domain.SessionID, view *projection.Timeline, replies chan<- Frame) {
	for {
		var command Command
		if err := conn.ReadJSON(&command); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("Failed to read command", "session", session, "error", err)
			}
			return
		}
		frame, err := s.handle(ctx, session, view, command)
		if err != nil {
			s.log.Debug("Command refused", "session", session, "op", command.Op, "error", err)
			frame = toErrorFrame(command.Op, err)
		}
		select {
		case replies <- frame:
		case <-ctx.Done():
			return
		}
	}
}

// write is the only goroutine writing to conn. The sink only queues events the
// session should see, relevance is decided when the hub delivers them.
func (s *Server) write(ctx context.Context, conn *websocket.Conn, session domain.SessionID, sink *Sink, replies <-chan Frame) {
	send := func(frame Frame) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(frame); err != nil {
			s.log.Error("Failed to push frame", "session", session, "type", frame.Type, "error", err)
			return false
		}
		return true
	}
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
			return
		case frame := <-replies:
			if !send(frame) {
				return
			}
		case e := <-sink.events:
			if !send(toEventFrame(e)) {
				return
			}
		}
	}
}

func (s *Server) handle(ctx context.Context, session domain.SessionID, view *projection.Timeline, command Command) (Frame, error) {
	reply := Frame{Type: TypeReply, Op: command.Op}
	switch command.Op {
	case OpRegister:
		return reply, s.service.Register(ctx, command.Name)
	case OpCreateRoom:
		created, err := s.service.CreateRoom(ctx, command.Name)
		reply.Created = lo.ToPtr(created)
		return reply, err
	case OpListRooms:
		reply.Rooms = s.service.ListRooms()
		return reply, nil
	case OpEnterRoom:
		if err := s.service.EnterRoom(ctx, session, command.Name); err != nil {
			return reply, err
		}
		return s.withLog(ctx, session, view, reply)
	case OpLeaveRoom:
		if err := s.service.LeaveRoom(ctx, session); err != nil {
			return reply, err
		}
		view.Hide()
		return reply, nil
	case OpEnterPrivate:
		if err := s.service.EnterPrivate(ctx, session, command.Name); err != nil {
			return reply, err
		}
		return s.withLog(ctx, session, view, reply)
	case OpFetch:
		return s.withLog(ctx, session, view, reply)
	case OpView:
		if scope, ok := view.Scope(); ok {
			reply.Scope = scope.Key()
		}
		reply.Messages = toMessageViews(view.Messages())
		return reply, nil
	}

	if !lo.Contains(scopedOps, command.Op) {
		return reply, fmt.Errorf("unknown op %q: %w", command.Op, chaterrors.ErrInvalidInput)
	}
	participant, scope, err := s.currentScope(session)
	if err != nil {
		return reply, err
	}
	reply.Scope = scope.Key()
	switch command.Op {
	case OpSend:
		message, err := s.service.Send(ctx, scope, participant.User, command.Body)
		reply.Message = lo.ToPtr(toMessageView(message))
		return reply, err
	case OpEdit:
		message, err := s.service.Edit(ctx, scope, command.ID, command.Body, participant.User)
		reply.Message = lo.ToPtr(toMessageView(message))
		return reply, err
	case OpSearch:
		messages, err := s.service.Search(ctx, scope, command.Text)
		reply.Messages = toMessageViews(messages)
		return reply, err
	default:
		return reply, s.service.Clear(ctx, scope)
	}
}

// withLog hydrates the connection's timeline with the log of the session's current
// scope and attaches the result.
func (s *Server) withLog(ctx context.Context, session domain.SessionID, view *projection.Timeline, reply Frame) (Frame, error) {
	_, scope, err := s.currentScope(session)
	if err != nil {
		return reply, err
	}
	messages, err := s.service.Fetch(ctx, scope)
	if err != nil {
		return reply, err
	}
	view.Show(scope, messages)
	reply.Scope = scope.Key()
	reply.Messages = toMessageViews(view.Messages())
	return reply, nil
}

func (s *Server) currentScope(session domain.SessionID) (domain.Participant, domain.Scope, error) {
	participant, err := s.service.Participant(session)
	if err != nil {
		return participant, domain.Scope{}, err
	}
	scope, ok := participant.Location.Scope(participant.User)
	if !ok {
		return participant, domain.Scope{}, fmt.Errorf("session %s is in the lobby: %w", session, chaterrors.ErrInvalidInput)
	}
	return participant, scope, nil
}
