// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

package websocket

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/eventfeed/internal/auth"
	"github.com/tomtom215/eventfeed/internal/config"
	"github.com/tomtom215/eventfeed/internal/events"
	"github.com/tomtom215/eventfeed/internal/logging"
	"github.com/tomtom215/eventfeed/internal/metrics"
)

// Authenticator admits or rejects a connection attempt. Rejections are
// *auth.RejectError.
type Authenticator interface {
	Authenticate(ctx context.Context, creds auth.Credentials) (*auth.Identity, error)
}

// Settings are the gateway's transport and paging limits.
type Settings struct {
	AuthTimeout    time.Duration
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
	SendBuffer     int
	PostRate       float64
	PostBurst      int

	SnapshotSize       int
	ReplayDefaultLimit int
	ReplayMaxLimit     int

	// AllowedOrigins lists browser origins allowed to connect. "*" allows
	// any origin; an empty list allows same-origin requests only.
	AllowedOrigins []string
}

// DefaultSettings returns the settings used when a field is left zero.
func DefaultSettings() Settings {
	return Settings{
		AuthTimeout:        10 * time.Second,
		WriteWait:          10 * time.Second,
		PongWait:           60 * time.Second,
		PingPeriod:         54 * time.Second,
		MaxMessageSize:     64 * 1024,
		SendBuffer:         256,
		PostRate:           5,
		PostBurst:          10,
		SnapshotSize:       10,
		ReplayDefaultLimit: 100,
		ReplayMaxLimit:     500,
	}
}

// SettingsFromConfig maps application config onto gateway settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		AuthTimeout:        cfg.WebSocket.AuthTimeout,
		WriteWait:          cfg.WebSocket.WriteWait,
		PongWait:           cfg.WebSocket.PongWait,
		PingPeriod:         cfg.WebSocket.PingPeriod,
		MaxMessageSize:     cfg.WebSocket.MaxMessageSize,
		SendBuffer:         cfg.WebSocket.SendBuffer,
		PostRate:           cfg.WebSocket.PostRate,
		PostBurst:          cfg.WebSocket.PostBurst,
		SnapshotSize:       cfg.Events.SnapshotSize,
		ReplayDefaultLimit: cfg.Events.ReplayDefaultLimit,
		ReplayMaxLimit:     cfg.Events.ReplayMaxLimit,
		AllowedOrigins:     cfg.Security.CORSOrigins,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.AuthTimeout <= 0 {
		s.AuthTimeout = d.AuthTimeout
	}
	if s.WriteWait <= 0 {
		s.WriteWait = d.WriteWait
	}
	if s.PongWait <= 0 {
		s.PongWait = d.PongWait
	}
	if s.PingPeriod <= 0 || s.PingPeriod >= s.PongWait {
		s.PingPeriod = (s.PongWait * 9) / 10
	}
	if s.MaxMessageSize <= 0 {
		s.MaxMessageSize = d.MaxMessageSize
	}
	if s.SendBuffer <= 0 {
		s.SendBuffer = d.SendBuffer
	}
	if s.PostBurst <= 0 {
		s.PostBurst = d.PostBurst
	}
	if s.SnapshotSize <= 0 {
		s.SnapshotSize = d.SnapshotSize
	}
	if s.ReplayMaxLimit <= 0 {
		s.ReplayMaxLimit = d.ReplayMaxLimit
	}
	if s.ReplayDefaultLimit <= 0 || s.ReplayDefaultLimit > s.ReplayMaxLimit {
		s.ReplayDefaultLimit = min(d.ReplayDefaultLimit, s.ReplayMaxLimit)
	}
	return s
}

// Gateway upgrades HTTP requests, authenticates them, joins them to their
// tenant's room and serves replay and post_event requests.
type Gateway struct {
	hub      *Hub
	ingestor *events.Ingestor
	authn    Authenticator
	settings Settings
	upgrader websocket.Upgrader
}

// NewGateway creates a Gateway. The hub must be the Sink of the ingestor's
// Store for broadcasts to reach clients.
func NewGateway(hub *Hub, ingestor *events.Ingestor, authn Authenticator, settings Settings) *Gateway {
	g := &Gateway{
		hub:      hub,
		ingestor: ingestor,
		authn:    authn,
		settings: settings.withDefaults(),
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      g.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	return g
}

// Hub returns the gateway's hub.
func (g *Gateway) Hub() *Hub {
	return g.hub
}

// checkOrigin validates the Origin header of an upgrade request. Requests
// without one come from non-browser clients; they carry explicit
// credentials, so there is no ambient authority to protect.
func (g *Gateway) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(g.settings.AllowedOrigins) == 0 {
		u, err := url.Parse(origin)
		if err == nil && strings.EqualFold(u.Host, r.Host) {
			return true
		}
	}
	for _, allowed := range g.settings.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	metrics.RecordWSError("origin")
	return false
}

// ServeHTTP handles GET /ws/events.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
		metrics.RecordWSError("upgrade")
		return
	}

	creds, ok := g.credentials(r, conn)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), g.settings.AuthTimeout)
	identity, err := g.authn.Authenticate(ctx, creds)
	cancel()
	if err != nil {
		re, ok := auth.AsRejectError(err)
		if !ok {
			re = &auth.RejectError{Code: auth.CodeInternalError, Message: "authentication failed"}
		}
		g.reject(conn, re.Code, re.Message)
		return
	}

	c := newClient(g, conn, identity)
	joined := false
	g.ingestor.Store().Snapshot(identity.TenantID, g.settings.SnapshotSize, func(snapshot []events.Event) {
		joined = g.hub.join(c, snapshot)
	})
	if !joined {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(g.settings.WriteWait))
		_ = conn.Close()
		return
	}

	logging.Ctx(r.Context()).Info().
		Uint64("client_id", c.id).
		Str("tenant_id", identity.TenantID).
		Str("user_id", identity.UserID).
		Msg("websocket client connected")

	c.start()
}

// credentials reads the upgrade headers, falling back to a first-frame auth
// message. It reports false after rejecting the connection itself.
func (g *Gateway) credentials(r *http.Request, conn *websocket.Conn) (auth.Credentials, bool) {
	creds := auth.Credentials{
		TenantID: r.Header.Get(auth.HeaderTenantID),
		Token:    r.Header.Get(auth.HeaderUserToken),
	}
	if creds.TenantID != "" || creds.Token != "" {
		return creds, true
	}

	conn.SetReadLimit(g.settings.MaxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(g.settings.AuthTimeout)); err != nil {
		_ = conn.Close()
		return creds, false
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		g.reject(conn, auth.CodeAuthRequired, "auth message not received")
		return creds, false
	}

	var msg inboundMessage
	var payload AuthPayload
	if json.Unmarshal(data, &msg) != nil || msg.Type != MessageTypeAuth || decodeData(msg.Data, &payload) != nil {
		g.reject(conn, auth.CodeAuthRequired, "first message must be auth with tenantId and token")
		return creds, false
	}
	metrics.RecordWSMessageReceived(MessageTypeAuth)

	// The read deadline is reset by readPump once joined.
	return auth.Credentials{TenantID: payload.TenantID, Token: payload.Token}, true
}

// reject sends connect_error and closes with a policy violation. The
// connection never joins a room.
func (g *Gateway) reject(conn *websocket.Conn, code, message string) {
	metrics.RecordWSAuthFailure(code)

	deadline := time.Now().Add(g.settings.WriteWait)
	if frame, err := MarshalMessage(Message{
		Type: MessageTypeConnectError,
		Data: ErrorPayload{Code: code, Message: message},
	}); err == nil {
		_ = conn.SetWriteDeadline(deadline)
		_ = conn.WriteMessage(websocket.TextMessage, frame)
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, code), deadline)
	_ = conn.Close()
}

// disconnect removes c from its room and stops its write pump.
func (g *Gateway) disconnect(c *Client) {
	if g.hub.leave(c) {
		logging.Info().
			Uint64("client_id", c.id).
			Str("tenant_id", c.TenantID()).
			Msg("websocket client disconnected")
	}
	c.close()
}

// drop disconnects a client whose send queue is full.
func (g *Gateway) drop(c *Client) {
	g.hub.dropClient(c)
}

// handle dispatches one request frame from a joined client.
func (g *Gateway) handle(c *Client, msg inboundMessage) {
	switch msg.Type {
	case MessageTypeReplay:
		metrics.RecordWSMessageReceived(msg.Type)
		g.handleReplay(c, msg)
	case MessageTypePostEvent:
		metrics.RecordWSMessageReceived(msg.Type)
		g.handlePostEvent(c, msg)
	case MessageTypePing:
		metrics.RecordWSMessageReceived(msg.Type)
		c.sendMessage(Message{Type: MessageTypePong, ID: msg.ID})
	default:
		metrics.RecordWSMessageReceived("unknown")
		c.sendError(msg.ID, CodeUnknownType, "Unknown message type")
	}
}

func (g *Gateway) handleReplay(c *Client, msg inboundMessage) {
	var req ReplayRequest
	if err := decodeData(msg.Data, &req); err != nil {
		c.sendError(msg.ID, CodeReplayError, "Invalid replay request")
		return
	}

	limit := g.settings.ReplayDefaultLimit
	if req.Limit != nil {
		if *req.Limit < 1 {
			metrics.RecordIngestRejection(events.SourceWebSocket, events.CodeInvalidLimit)
			c.sendError(msg.ID, events.CodeInvalidLimit, "limit must be a positive integer")
			return
		}
		limit = min(*req.Limit, g.settings.ReplayMaxLimit)
	}

	evs := g.ingestor.Store().GetSince(c.TenantID(), req.SinceID, limit)
	metrics.RecordReplay(events.SourceWebSocket)

	c.sendMessage(Message{
		Type: MessageTypeReplayResult,
		ID:   msg.ID,
		Data: ReplayResult{Events: nonNil(evs)},
	})
}

func (g *Gateway) handlePostEvent(c *Client, msg inboundMessage) {
	var req PostEventRequest
	if err := decodeData(msg.Data, &req); err != nil {
		c.sendError(msg.ID, events.CodeMessageRequired, "Message is required")
		return
	}

	if !c.limiter.Allow() {
		c.sendError(msg.ID, CodeRateLimited, "Too many post_event requests")
		return
	}

	event, err := g.ingestor.IngestFrom(events.SourceWebSocket, c.TenantID(), req.Message, c.identity.UserID)
	if err != nil {
		if ve, ok := events.AsValidationError(err); ok {
			c.sendError(msg.ID, ve.Code, ve.Message)
			return
		}
		logging.Error().Err(err).Str("tenant_id", c.TenantID()).Msg("post_event failed")
		c.sendError(msg.ID, CodePostEventError, "Failed to create event")
		return
	}

	logging.Debug().
		Str("event_id", event.ID).
		Str("tenant_id", event.TenantID).
		Str("user_id", c.identity.UserID).
		Msg("Event created via websocket")

	c.sendMessage(Message{
		Type: MessageTypePostEventResult,
		ID:   msg.ID,
		Data: PostEventResult{Event: event},
	})
}

// sanitizeLogValue strips control characters and caps length so that
// client-supplied values cannot forge log lines.
func sanitizeLogValue(s string) string {
	const maxLen = 200
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return s
}
