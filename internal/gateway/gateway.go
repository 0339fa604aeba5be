// Package gateway is the websocket transport in front of the session engine.
// It decodes inbound events, normalizes external identifiers to plain
// strings, dispatches to the queue and the session manager, and routes
// outbound events to the right connections.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"claimgrid/internal/game"
	"claimgrid/internal/matchmaking"
	"claimgrid/internal/obslog"
	"claimgrid/pkg/wire"
)

const reasonForfeit = "Opponent forfeited"
const reasonDisconnect = "Opponent disconnected"

// disconnectNotifyTimeout bounds the outbound writes made on behalf of a
// connection that is already gone. A stalled survivor socket must not pin the
// handler goroutine.
const disconnectNotifyTimeout = 5 * time.Second

type client struct {
	conn   *websocket.Conn
	connID string

	mu       sync.Mutex // guards identity and serializes writes
	playerID string
	name     string
}

func (c *client) identity() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID, c.name
}

func (c *client) setIdentity(playerID, name string) {
	c.mu.Lock()
	c.playerID = playerID
	c.name = name
	c.mu.Unlock()
}

func (c *client) send(ctx context.Context, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := wsjson.Write(ctx, c.conn, v); err != nil {
		obslog.L().Debug("ws_write_error", zap.String("conn_id", c.connID), zap.Error(err))
	}
}

type Gateway struct {
	mgr   *game.Manager
	queue *matchmaking.Queue

	mu      sync.RWMutex
	clients map[string]*client // by connection id
}

func New(mgr *game.Manager, queue *matchmaking.Queue) *Gateway {
	return &Gateway{
		mgr:     mgr,
		queue:   queue,
		clients: make(map[string]*client),
	}
}

// Handler upgrades the request and services the connection until the client
// goes away. Each connection gets its own server-assigned id; a vanished
// connection is handled exactly like an explicit disconnect.
func (g *Gateway) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode:    websocket.CompressionNoContextTakeover,
		InsecureSkipVerify: true, // origin policy is the proxy's concern
	})
	if err != nil {
		obslog.L().Warn("ws_accept_error", zap.Error(err))
		return
	}

	c := &client{conn: conn, connID: uuid.NewString()}
	g.mu.Lock()
	g.clients[c.connID] = c
	g.mu.Unlock()
	obslog.L().Info("ws_connect", zap.String("conn_id", c.connID))

	ctx := r.Context()
	defer g.disconnect(c)
	defer conn.Close(websocket.StatusNormalClosure, "")

	for {
		var in wire.Inbound
		if err := wsjson.Read(ctx, conn, &in); err != nil {
			if !errors.Is(err, context.Canceled) {
				obslog.L().Debug("ws_read_end", zap.String("conn_id", c.connID), zap.Error(err))
			}
			return
		}
		g.dispatch(ctx, c, &in)
	}
}

func (g *Gateway) dispatch(ctx context.Context, c *client, in *wire.Inbound) {
	switch in.Type {
	case wire.TypeFindMatch:
		g.handleFindMatch(ctx, c, in)
	case wire.TypeCancelMatch:
		g.queue.Cancel(c.connID)
	case wire.TypeMakeMove:
		g.handleMakeMove(ctx, c, in)
	case wire.TypeForfeitGame:
		g.handleForfeit(ctx, c, in)
	default:
		c.send(ctx, wire.Error{Type: wire.TypeError, Message: "Invalid payload."})
	}
}

func (g *Gateway) handleFindMatch(ctx context.Context, c *client, in *wire.Inbound) {
	playerID := strings.TrimSpace(in.PlayerID)
	name := strings.TrimSpace(in.DisplayName)
	if playerID == "" {
		c.send(ctx, wire.Error{Type: wire.TypeError, Message: "Invalid player data provided."})
		return
	}
	if name == "" {
		name = "unknown"
	}
	c.setIdentity(playerID, name)

	res, err := g.queue.Enqueue(ctx, game.Participant{PlayerID: playerID, ConnID: c.connID, Name: name})
	if err != nil {
		c.send(ctx, wire.Error{Type: wire.TypeError, Message: userMessage(err)})
		return
	}
	if res.Session == nil {
		c.send(ctx, wire.Waiting{Type: wire.TypeWaiting, Count: res.Waiting})
		return
	}

	s := res.Session
	msg := wire.GameStart{
		Type:        wire.TypeGameStart,
		GameID:      s.ID,
		Player1:     slotView(&s.Player1),
		Player2:     slotView(&s.Player2),
		CurrentTurn: string(s.Turn),
		Grid:        s.Grid,
		Status:      string(s.Status),
	}
	g.sendToSession(ctx, s, msg)
}

func (g *Gateway) handleMakeMove(ctx context.Context, c *client, in *wire.Inbound) {
	playerID, _ := c.identity()
	if playerID == "" {
		c.send(ctx, wire.Error{Type: wire.TypeError, Message: "User not authenticated"})
		return
	}
	gameID := strings.TrimSpace(in.GameID)
	if gameID == "" || in.Row == nil || in.Col == nil {
		c.send(ctx, wire.Error{Type: wire.TypeError, Message: "Invalid payload."})
		return
	}

	out, err := g.mgr.ApplyMove(ctx, gameID, playerID, *in.Row, *in.Col)
	if err != nil {
		g.reportEngineError(ctx, c, gameID, err)
		return
	}

	s := out.Session
	if !out.Finished {
		g.sendToSession(ctx, s, wire.MoveMade{
			Type:        wire.TypeMoveMade,
			GameID:      s.ID,
			Row:         out.Row,
			Col:         out.Col,
			Color:       string(out.Color),
			CurrentTurn: string(s.Turn),
			Grid:        s.Grid,
		})
		return
	}
	grid := s.Grid
	g.sendToSession(ctx, s, wire.GameEnd{
		Type:   wire.TypeGameEnd,
		GameID: s.ID,
		Status: string(s.Status),
		Winner: s.Winner,
		Grid:   &grid,
	})
}

func (g *Gateway) handleForfeit(ctx context.Context, c *client, in *wire.Inbound) {
	playerID, _ := c.identity()
	gameID := strings.TrimSpace(in.GameID)
	if playerID == "" || gameID == "" {
		c.send(ctx, wire.Error{Type: wire.TypeError, Message: "Invalid forfeit request."})
		return
	}

	s, already, err := g.mgr.Forfeit(ctx, gameID, playerID)
	if err != nil {
		g.reportEngineError(ctx, c, gameID, err)
		return
	}
	if already {
		return
	}
	g.sendToSession(ctx, s, wire.GameEnd{
		Type:   wire.TypeGameEnd,
		GameID: s.ID,
		Status: string(s.Status),
		Winner: s.Winner,
		Reason: reasonForfeit,
	})
}

// disconnect runs when the read loop ends for any reason: the waiting entry is
// dropped and every active session held by the connection is finalized with
// the remaining player as winner. Only the survivor is notified; the
// departing side is gone. A finalize that could not be persisted is reported
// to the survivor as a server error instead of a result.
func (g *Gateway) disconnect(c *client) {
	g.mu.Lock()
	delete(g.clients, c.connID)
	g.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), disconnectNotifyTimeout)
	defer cancel()

	g.queue.Cancel(c.connID)
	ended, failed := g.mgr.HandleDisconnect(ctx, c.connID)
	for _, s := range ended {
		g.sendToConn(ctx, survivorConn(s, c.connID), wire.GameEnd{
			Type:   wire.TypeGameEnd,
			GameID: s.ID,
			Status: string(s.Status),
			Winner: s.Winner,
			Reason: reasonDisconnect,
		})
	}
	for _, s := range failed {
		g.sendToConn(ctx, survivorConn(s, c.connID), wire.Error{
			Type:    wire.TypeError,
			Message: "Server error ending game after disconnect.",
		})
	}
	obslog.L().Info("ws_disconnect", zap.String("conn_id", c.connID))
}

func survivorConn(s *game.Session, gone string) string {
	if s.Player1.ConnID == gone {
		return s.Player2.ConnID
	}
	return s.Player1.ConnID
}

// reportEngineError maps engine errors to client messages. Validation errors
// go to the requester only; a finalize-time persistence failure is the one
// case surfaced to both participants, as a generic server error.
func (g *Gateway) reportEngineError(ctx context.Context, c *client, gameID string, err error) {
	if errors.Is(err, game.ErrPersistence) {
		msg := wire.Error{Type: wire.TypeError, Message: "Server error ending game."}
		if s, gerr := g.mgr.Get(ctx, gameID); gerr == nil {
			g.sendToSession(ctx, s, msg)
			return
		}
		c.send(ctx, msg)
		return
	}
	c.send(ctx, wire.Error{Type: wire.TypeError, Message: userMessage(err)})
}

func (g *Gateway) sendToSession(ctx context.Context, s *game.Session, v any) {
	g.sendToConn(ctx, s.Player1.ConnID, v)
	g.sendToConn(ctx, s.Player2.ConnID, v)
}

func (g *Gateway) sendToConn(ctx context.Context, connID string, v any) {
	g.mu.RLock()
	c := g.clients[connID]
	g.mu.RUnlock()
	if c != nil {
		c.send(ctx, v)
	}
}

func slotView(p *game.PlayerSlot) wire.Player {
	return wire.Player{ID: p.PlayerID, Username: p.Name, Color: string(p.Color)}
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, game.ErrAlreadyActive):
		return "You are already in an active game."
	case errors.Is(err, game.ErrAlreadyQueued):
		return "You are already waiting for a match."
	case errors.Is(err, game.ErrGameNotActive):
		return "Invalid or finished game"
	case errors.Is(err, game.ErrNotAParticipant):
		return "Cannot act on a game you are not playing."
	case errors.Is(err, game.ErrNotYourTurn):
		return "Not your turn"
	case errors.Is(err, game.ErrOutOfBounds):
		return "Cell is outside the board"
	case errors.Is(err, game.ErrCellOccupied):
		return "Cell already occupied"
	default:
		return "Failed to process request due to server error."
	}
}
