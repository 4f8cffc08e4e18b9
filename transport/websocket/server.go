package websocket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/paritygrid/parity-grid-backend/internal/entity"
	"github.com/paritygrid/parity-grid-backend/internal/pkg"
	"github.com/paritygrid/parity-grid-backend/internal/registry"
	"github.com/paritygrid/parity-grid-backend/internal/usecase"
)

type uRoom interface {
	Connect(conn registry.Conn) string
	CreateRoom(sessionID, playerName string, preferred entity.Role) (*usecase.RoomCreatedPayload, error)
	JoinRoom(sessionID, roomID, playerName string) (*usecase.JoinSuccessPayload, error)
	Increment(ctx context.Context, sessionID string, square int) error
	RequestRematch(sessionID string) error
	Reconnect(currentSessionID, oldSessionID string, conn registry.Conn) (*usecase.ReconnectSuccessPayload, error)
	Leave(ctx context.Context, sessionID string) error
	Disconnect(sessionID string)
}

// client - per-connection state. The session id changes when a RECONNECT
// adopts an older session.
type client struct {
	conn      *clientConn
	sessionID string
}

type Server struct {
	logger *slog.Logger
	uRoom  uRoom

	handlers map[string]func(ctx context.Context, message *Message, c *client) error
}

func New(logger *slog.Logger, uRoom uRoom) *Server {
	server := &Server{
		logger: logger,
		uRoom:  uRoom,

		handlers: make(map[string]func(context.Context, *Message, *client) error),
	}

	server.handlers["CREATE_ROOM"] = server.handleCreateRoom
	server.handlers["JOIN_ROOM"] = server.handleJoinRoom
	server.handlers["INCREMENT"] = server.handleIncrement
	server.handlers["REQUEST_REMATCH"] = server.handleRequestRematch
	server.handlers["RECONNECT"] = server.handleReconnect
	server.handlers["LEAVE_ROOM"] = server.handleLeaveRoom

	return server
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	// no read/idle timeouts: connections stay open for the whole game
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	if req.Header.Get("Upgrade") != "websocket" {
		http.Error(writer, "not a websocket upgrade", http.StatusBadRequest)
		return
	}

	key := req.Header.Get("Sec-WebSocket-Key")
	acceptKey := pkg.GenerateAcceptKey(key)

	writer.Header().Set("Upgrade", "websocket")
	writer.Header().Set("Connection", "Upgrade")
	writer.Header().Set("Sec-WebSocket-Accept", acceptKey)
	writer.WriteHeader(http.StatusSwitchingProtocols)

	hijacker, ok := writer.(http.Hijacker)
	if !ok {
		log.Error("web server does not support hijacking")
		return
	}

	conn, bufrw, err := hijacker.Hijack()
	if err != nil {
		log.Error("failed to hijack connection", "error", err)
		return
	}

	defer conn.Close()

	log.Info("WebSocket connection established")

	that.handleMessages(ctx, newClientConn(bufrw))
}

// handleMessages - the per-connection read loop. A transport error or a close
// frame runs the same disconnect bookkeeping as a clean close.
func (that *Server) handleMessages(ctx context.Context, conn *clientConn) {
	log := that.logger.With("method", "handleMessages")

	c := &client{
		conn:      conn,
		sessionID: that.uRoom.Connect(conn),
	}

	if err := conn.Send(usecase.EventSessionCreated, usecase.SessionCreatedPayload{SessionID: c.sessionID}); err != nil {
		log.Error("failed to send session", "error", err)
		that.uRoom.Disconnect(c.sessionID)
		return
	}

	for {
		reqBody, err := c.conn.readRequest()
		if err != nil {
			if !errors.Is(err, ErrConnectionClosed) && !errors.Is(err, io.EOF) {
				log.Error("error reading message", "error", err)
			}
			that.uRoom.Disconnect(c.sessionID)
			return
		}

		message, err := decodeMessage(reqBody)
		if err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Type]
		if !ok {
			log.Warn("unknown message type", "type", message.Type)
			continue
		}

		if err = handler(ctx, message, c); err != nil {
			log.Error("error processing message", "type", message.Type, "error", err)
		}
	}
}

// sendError - reports a command failure back to the originating connection.
func (that *Server) sendError(c *client, message string) error {
	if err := c.conn.Send(usecase.EventError, usecase.ErrorPayload{Message: message}); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}

	return nil
}
