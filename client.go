package main

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 120 // input runs at tick rate, leave headroom
	maxNameLen        = 16
)

// Client is one websocket peer. The control plane (session and account
// messages) rides JSON envelopes; the per-tick traffic rides msgpack binary
// frames dispatched by their prefix byte.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	actorID    string
	sessionID  string
	remoteAddr string
	msgCount   int
	msgResetAt time.Time

	authPlayerID int64  // 0 = unauthenticated/guest
	authUsername string // "" = unauthenticated
}

func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

// ReadPump pulls frames off the connection until it drops, then unwinds
// through the hub's unregister path.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		if msgType == websocket.BinaryMessage && len(message) > 1 {
			c.handleBinary(message[0], message[1:])
		} else {
			c.handleMessage(message)
		}
	}
}

// WritePump owns all writes to the connection. Messages queued by SendBinary
// carry a leading 0xFF so the pump knows to send them as binary frames.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON queues a control-plane envelope for the write pump.
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.sendRaw(data)
}

// sendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) sendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// backlogged peer, drop the frame
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
// Prefixes with 0xFF marker byte so WritePump can distinguish from text.
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

// handleBinary routes the high-rate data plane by frame type byte
func (c *Client) handleBinary(frameType uint8, payload []byte) {
	if c.sessionID == "" || c.actorID == "" {
		return
	}
	sess := c.hub.sessions.GetSession(c.sessionID)
	if sess == nil {
		return
	}
	switch frameType {
	case BinInput:
		var frame InputFrame
		if err := msgpack.Unmarshal(payload, &frame); err != nil {
			return
		}
		sess.World.HandleInput(c.actorID, frame.Snapshot())
	case BinHold:
		var cmd HoldCommand
		if err := msgpack.Unmarshal(payload, &cmd); err != nil {
			return
		}
		sess.World.HandleHoldCommand(c.actorID, cmd)
	}
}

// handleMessage routes incoming control messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	switch env.T {
	case MsgList:
		c.handleList()
	case MsgCreate:
		c.handleCreate(env.D)
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgLeave:
		c.leaveSession()
	case MsgCheck:
		c.handleCheck(env.D)
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	case MsgProfile:
		c.handleProfile()
	}
}

func (c *Client) handleList() {
	sessions := c.hub.sessions.ListSessions()
	c.SendJSON(Envelope{T: MsgSessions, Data: sessions})
}

func (c *Client) handleCreate(data json.RawMessage) {
	var msg CreateMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sname := msg.SessionName
	if sname == "" {
		sname = "Warehouse"
	}
	if len(sname) > 30 {
		sname = sname[:30]
	}

	sess := c.hub.sessions.CreateSession(sname)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "too many active sessions"}})
		return
	}
	c.SendJSON(Envelope{T: MsgCreated, Data: map[string]string{"sid": sess.ID}})
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	name := msg.Name
	if name == "" {
		name = "Player"
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}

	sess := c.hub.sessions.GetSession(msg.SessionID)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "session not found"}})
		return
	}

	actor := sess.World.AddActor(name)
	if actor == nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "session full"}})
		return
	}
	c.actorID = actor.ID
	c.sessionID = sess.ID
	actor.AuthPlayerID = c.authPlayerID

	sess.World.SetClient(actor.ID, c)

	c.SendJSON(Envelope{T: MsgJoined, Data: map[string]string{"sid": sess.ID}})
	c.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{
		ID:       actor.ID,
		Spawn:    [3]float64{actor.Position.X(), actor.Position.Y(), actor.Position.Z()},
		Yaw:      actor.State.BodyYaw.Get(),
		Proto:    ProtocolVersion,
		Tuning:   *actor.Tuning,
		TickRate: TickRate,
	}})
}

func (c *Client) handleCheck(data json.RawMessage) {
	var msg CheckMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(msg.SID)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{SID: msg.SID, Exists: false}})
		return
	}
	c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{
		SID:     msg.SID,
		Exists:  true,
		Name:    sess.Name,
		Players: sess.World.ActorCount(),
	}})
}

// leaveSession detaches the client from its session, flushing lifetime
// stats for authenticated players. Shared by the leave message and the
// disconnect path, so a dropped holder releases its object either way.
func (c *Client) leaveSession() {
	if c.sessionID == "" {
		return
	}
	sess := c.hub.sessions.GetSession(c.sessionID)
	if sess != nil {
		c.flushStats(sess)
	}
	c.hub.sessions.RemovePlayer(c.sessionID, c.actorID)
	c.sessionID = ""
	c.actorID = ""
}

// flushStats persists the actor's session counters and reports newly
// unlocked milestones.
func (c *Client) flushStats(sess *Session) {
	if c.hub.db == nil || c.authPlayerID == 0 {
		return
	}
	a := sess.World.ActorByID(c.actorID)
	if a == nil {
		return
	}
	playtime := time.Since(a.JoinedAt).Seconds()
	if err := c.hub.db.UpdateStats(c.authPlayerID, playtime, a.DistanceMoved, a.Grabs, a.Throws, a.Breaks); err != nil {
		log.Printf("stats flush error: %v", err)
		return
	}
	unlocked := CheckMilestones(c.hub.db, c.authPlayerID)
	if len(unlocked) > 0 {
		ids := make([]string, len(unlocked))
		for i, m := range unlocked {
			ids[i] = m.ID
		}
		c.SendJSON(Envelope{T: MsgUnlocked, Data: UnlockedMsg{IDs: ids}})
	}
}

func (c *Client) handleRegister(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Register(msg.Username, msg.Password)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: err.Error()}})
		return
	}
	c.setAuthenticated(id, msg.Username, token)
}

func (c *Client) handleLogin(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Login(msg.Username, msg.Password, c.remoteAddr)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: err.Error()}})
		return
	}
	c.setAuthenticated(id, msg.Username, token)
}

func (c *Client) handleAuth(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, username, err := c.hub.auth.ValidateToken(msg.Token)
	if err != nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "invalid token"}})
		return
	}
	c.setAuthenticated(id, username, msg.Token)
}

func (c *Client) setAuthenticated(id int64, username, token string) {
	c.authPlayerID = id
	c.authUsername = username
	c.hub.BindAccount(id, c)
	if c.hub.analytics != nil {
		c.hub.analytics.Track(EvtLogin, id, c.sessionID, "")
	}
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    token,
		Username: username,
		PlayerID: id,
	}})
}

func (c *Client) handleProfile() {
	if c.hub.db == nil || c.authPlayerID == 0 {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "not authenticated"}})
		return
	}
	stats, err := c.hub.db.GetStats(c.authPlayerID)
	if err != nil || stats == nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "profile not found"}})
		return
	}
	c.SendJSON(Envelope{T: MsgProfileData, Data: ProfileDataMsg{
		Username: c.authUsername,
		Playtime: stats.Playtime,
		Distance: stats.Distance,
		Grabs:    stats.Grabs,
		Throws:   stats.Throws,
		Breaks:   stats.Breaks,
	}})
}
