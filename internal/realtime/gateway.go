package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/peerpresence/server-go/internal/config"
	apperrors "github.com/peerpresence/server-go/internal/errors"
	"github.com/peerpresence/server-go/internal/model"
)

// IdentityLookup maps the reference a socket presents onto a person id
// without side effects.
type IdentityLookup interface {
	Lookup(ctx context.Context, ref string) (string, error)
}

// ChatPoster stores a legacy global chat line.
type ChatPoster interface {
	Post(ctx context.Context, sourceKey, sender, text, timestamp string) (*model.GlobalMessage, error)
}

// Gateway serves the websocket endpoint and routes events between sockets,
// the Bus, and the services.
type Gateway struct {
	hub      *Hub
	bus      Bus
	identity IdentityLookup
	chat     ChatPoster
	upgrader websocket.Upgrader
}

func NewGateway(bus Bus, identity IdentityLookup, chat ChatPoster, checkOrigin func(origin string) bool) *Gateway {
	g := &Gateway{
		hub:      NewHub(),
		bus:      bus,
		identity: identity,
		chat:     chat,
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return checkOrigin == nil || checkOrigin(r.Header.Get("Origin"))
		},
	}
	return g
}

// Start subscribes the gateway to the bus. It must be called before serving.
func (g *Gateway) Start(ctx context.Context) error {
	return g.bus.Subscribe(ctx, g.receive)
}

// Close disconnects every socket. The bus is owned by the caller.
func (g *Gateway) Close() {
	g.hub.closeAll(websocket.CloseGoingAway, "server shutdown")
}

func (g *Gateway) Hub() *Hub {
	return g.hub
}

// EmitToRoom publishes event to every socket joined to room on any instance.
func (g *Gateway) EmitToRoom(ctx context.Context, room, event string, payload any) error {
	return g.publish(ctx, Target{Kind: TargetRoom, Key: room}, "", event, payload)
}

// EmitToPerson publishes event to every socket of personID on any instance.
func (g *Gateway) EmitToPerson(ctx context.Context, personID, event string, payload any) error {
	return g.publish(ctx, Target{Kind: TargetPerson, Key: personID}, "", event, payload)
}

// Broadcast publishes event to every socket on every instance.
func (g *Gateway) Broadcast(ctx context.Context, event string, payload any) error {
	return g.publish(ctx, Target{Kind: TargetAll}, "", event, payload)
}

func (g *Gateway) publish(ctx context.Context, target Target, exceptConn, event string, payload any) error {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		return err
	}
	if err := g.bus.Publish(ctx, Envelope{Target: target, ExceptConn: exceptConn, Frame: frame}); err != nil {
		return fmt.Errorf("publish %s: %w", event, err)
	}
	return nil
}

func (g *Gateway) receive(env Envelope) {
	g.hub.deliver(env.Target, env.Frame, env.ExceptConn)
}

// ServeHTTP upgrades the request and runs the socket until it closes. The
// userId query parameter may name a person or a linked tutor listing; an
// unknown or missing reference yields an anonymous socket.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	personID := g.lookup(r.Context(), r.URL.Query().Get("userId"))
	conn := newConn(personID, ws)
	g.hub.Attach(conn)
	conn.start()

	log.Info().
		Str("connId", conn.ID).
		Str("personId", personID).
		Int("connections", g.hub.Count()).
		Msg("socket connected")

	// Every identified connect refreshes all sockets, including a person's
	// other tabs. An anonymous socket only needs the current list.
	if personID != "" {
		g.broadcastPresence()
	} else {
		g.sendPresence(conn)
	}

	g.readLoop(conn)

	wentOffline := g.hub.Detach(conn)
	conn.Close(websocket.CloseNormalClosure, "")

	log.Info().
		Str("connId", conn.ID).
		Str("personId", personID).
		Msg("socket disconnected")

	if wentOffline {
		g.broadcastPresence()
	}
}

func (g *Gateway) lookup(ctx context.Context, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || g.identity == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, config.SocketEventTimeout)
	defer cancel()
	personID, err := g.identity.Lookup(ctx, ref)
	if err != nil {
		event := log.Warn()
		if apperrors.Is(err, apperrors.ErrCodeNotFound) || apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
			event = log.Debug()
		}
		event.Err(err).
			Str("ref", ref).
			Str("code", string(apperrors.GetCode(err))).
			Msg("socket identity not resolved, connecting anonymously")
		return ""
	}
	return personID
}

// broadcastPresence sends this process's online list to its own sockets.
// Presence is not shared across instances.
func (g *Gateway) broadcastPresence() {
	frame, err := encodeFrame(EventPresenceUpdate, presencePayload{Online: g.hub.Online()})
	if err != nil {
		log.Error().Err(err).Msg("failed to encode presence")
		return
	}
	g.hub.deliver(Target{Kind: TargetAll}, frame, "")
}

func (g *Gateway) sendPresence(conn *Conn) {
	frame, err := encodeFrame(EventPresenceUpdate, presencePayload{Online: g.hub.Online()})
	if err != nil {
		log.Error().Err(err).Msg("failed to encode presence")
		return
	}
	if err := conn.Send(frame); err != nil {
		log.Debug().Err(err).Str("connId", conn.ID).Msg("failed to send presence")
	}
}

func (g *Gateway) readLoop(conn *Conn) {
	conn.ws.SetReadLimit(config.SocketReadLimit)
	_ = conn.ws.SetReadDeadline(time.Now().Add(config.SocketPongWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(config.SocketPongWait))
	})

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Str("connId", conn.ID).Msg("socket read failed")
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Debug().Err(err).Str("connId", conn.ID).Msg("ignoring malformed frame")
			continue
		}
		g.handle(conn, frame)
	}
}

func (g *Gateway) handle(conn *Conn, frame Frame) {
	ctx, cancel := context.WithTimeout(context.Background(), config.SocketEventTimeout)
	defer cancel()

	switch frame.Type {
	case EventJoin, EventLeave:
		var p roomPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			return
		}
		room := normalizeRoom(p.ConversationID)
		if frame.Type == EventJoin {
			g.hub.Join(room, conn)
		} else {
			g.hub.Leave(room, conn)
		}

	case EventTyping:
		var p typingPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			return
		}
		room := normalizeRoom(p.ConversationID)
		if room == "" {
			return
		}
		p.ConversationID = room
		if err := g.publish(ctx, Target{Kind: TargetRoom, Key: room}, conn.ID, EventTyping, p); err != nil {
			log.Warn().Err(err).Str("conversationId", room).Msg("failed to relay typing")
		}

	case EventChatMessage:
		var p chatPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			return
		}
		if g.chat == nil {
			return
		}
		msg, err := g.chat.Post(ctx, conn.ID, p.Sender, p.Text, p.Timestamp)
		if err != nil {
			log.Warn().Err(err).Str("connId", conn.ID).Msg("failed to save chat message")
			return
		}
		if err := g.Broadcast(ctx, EventChatMessage, msg); err != nil {
			log.Warn().Err(err).Msg("failed to broadcast chat message")
		}

	default:
		log.Debug().Str("type", frame.Type).Str("connId", conn.ID).Msg("ignoring unknown frame")
	}
}

func normalizeRoom(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
