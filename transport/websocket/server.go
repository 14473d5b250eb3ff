package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/stonepaper-backend/internal/entity"
)

const disconnectTimeout = 5 * time.Second

type matchLoop interface {
	Join(ctx context.Context, roomKey, identity, name, email string) error
	SetReady(ctx context.Context, roomKey, identity string, value bool) error
	SubmitChoice(ctx context.Context, roomKey, identity string, choice *string) error
	SendEmoji(ctx context.Context, roomKey, identity, emoji string) error
	Disconnect(ctx context.Context, identity string) error
}

type handlerFunc func(ctx context.Context, c *client, msg *Message) error

type Server struct {
	logger   *slog.Logger
	loop     matchLoop
	hub      *Hub
	upgrader websocket.Upgrader

	handlers map[string]handlerFunc
	conns    sync.WaitGroup
}

func New(logger *slog.Logger, loop matchLoop, hub *Hub) *Server {
	server := &Server{
		logger: logger,
		loop:   loop,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		handlers: make(map[string]handlerFunc),
	}

	server.handlers[actionJoinRoom] = server.handleJoinRoom
	server.handlers[actionPlayerReady] = server.handleReady
	server.handlers[actionPlayerUnready] = server.handleUnready
	server.handlers[actionPlayerChoice] = server.handleChoice
	server.handlers[actionSendEmoji] = server.handleEmoji

	return server
}

// ServeHTTP - upgrades the request and serves the connection until it closes.
// Every connection gets a fresh identity that lives as long as the socket.
func (that *Server) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	that.conns.Add(1)
	defer that.conns.Done()

	c := newClient(that.logger, uuid.NewString(), conn)

	that.hub.register(c)
	that.hub.send(c.id, entity.ActionConnected, entity.ConnectedPayload{ID: c.id})

	log.Info("WebSocket connection established", "identity", c.id)

	go c.writePump()

	ctx := req.Context()
	c.readPump(func(data []byte) {
		that.handleMessage(ctx, c, data)
	})

	that.hub.unregister(c)
	that.disconnect(c)
}

// Wait - blocks until every served connection has handed its disconnect to the match loop.
func (that *Server) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		that.conns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to wait for connections: %w", ctx.Err())
	}
}

func (that *Server) disconnect(c *client) {
	log := that.logger.With("method", "disconnect", "identity", c.id)

	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()

	if err := that.loop.Disconnect(ctx, c.id); err != nil {
		log.Error("failed to submit disconnect", "error", err)
		return
	}

	log.Info("WebSocket connection closed")
}

func (that *Server) handleMessage(ctx context.Context, c *client, data []byte) {
	log := that.logger.With("method", "handleMessage", "identity", c.id)

	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		log.Warn("failed to unmarshal message", "error", err)
		that.sendError(c, "malformed message")
		return
	}

	handler, ok := that.handlers[message.Action]
	if !ok {
		log.Warn("unknown action", "action", message.Action)
		that.sendError(c, "unknown action: "+message.Action)
		return
	}

	if err := handler(ctx, c, &message); err != nil {
		log.Warn("error processing message", "action", message.Action, "error", err)
		that.sendError(c, err.Error())
	}
}

func (that *Server) sendError(c *client, text string) {
	that.hub.send(c.id, entity.ActionError, entity.ErrorPayload{Error: text})
}
