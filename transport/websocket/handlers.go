package websocket

import (
	"context"
)

func (that *Server) handleJoinRoom(ctx context.Context, c *client, msg *Message) error {
	var payload joinRoomPayload
	if err := decodePayload(msg, &payload); err != nil {
		return err
	}

	return that.loop.Join(ctx, payload.RoomID, c.id, payload.Name, payload.Email)
}

func (that *Server) handleReady(ctx context.Context, c *client, msg *Message) error {
	var payload roomPayload
	if err := decodePayload(msg, &payload); err != nil {
		return err
	}

	return that.loop.SetReady(ctx, payload.RoomID, c.id, true)
}

func (that *Server) handleUnready(ctx context.Context, c *client, msg *Message) error {
	var payload roomPayload
	if err := decodePayload(msg, &payload); err != nil {
		return err
	}

	return that.loop.SetReady(ctx, payload.RoomID, c.id, false)
}

func (that *Server) handleChoice(ctx context.Context, c *client, msg *Message) error {
	var payload choicePayload
	if err := decodePayload(msg, &payload); err != nil {
		return err
	}

	return that.loop.SubmitChoice(ctx, payload.RoomID, c.id, payload.symbol())
}

func (that *Server) handleEmoji(ctx context.Context, c *client, msg *Message) error {
	var payload emojiPayload
	if err := decodePayload(msg, &payload); err != nil {
		return err
	}

	return that.loop.SendEmoji(ctx, payload.RoomID, c.id, payload.Emoji)
}
