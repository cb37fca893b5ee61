package main

import (
	"log"
	"sync"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 500
)

// Hub owns the set of live websocket clients and the session manager they
// join through. Admission limits are enforced before the websocket upgrade,
// so ipConns/totalConns live behind their own mutex reachable from HTTP
// handlers.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]bool
	sessions *SessionManager

	register   chan *Client
	unregister chan *Client

	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int

	db        *DB
	auth      *Auth
	analytics *Analytics

	// One live connection per account: a later login takes the slot over.
	accountMu sync.Mutex
	accounts  map[int64]*Client
}

// NewHub creates a hub. db and analytics may be nil, which runs the server
// in guest-only in-memory mode.
func NewHub(db *DB, analytics *Analytics) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		sessions:   NewSessionManager(analytics),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		ipConns:    make(map[string]int),
		db:         db,
		analytics:  analytics,
		accounts:   make(map[int64]*Client),
	}
	if db != nil {
		h.auth = NewAuth(db)
	}
	return h
}

// CanAccept reports whether a new connection from ip fits under the per-IP
// and global caps. Checked before upgrading, so a refused peer costs one
// plain HTTP response.
func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns < maxTotalConns && h.ipConns[ip] < maxConnsPerIP
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	h.ipConns[ip]++
	h.totalConns++
	h.connMu.Unlock()
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	if h.ipConns[ip]--; h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
	h.connMu.Unlock()
}

// Run drains the register/unregister channels until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.admit(c)
		case c := <-h.unregister:
			h.drop(c)
		}
	}
}

func (h *Hub) admit(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	if h.analytics != nil {
		h.analytics.SetConcurrentPeers(n)
	}
}

func (h *Hub) drop(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	if h.analytics != nil {
		h.analytics.SetConcurrentPeers(n)
	}
	// Leaving the session drops any held object and flushes lifetime stats.
	c.leaveSession()
	if c.authPlayerID != 0 {
		h.releaseAccount(c.authPlayerID, c)
	}
}

// BindAccount records c as the live connection for playerID. If the account
// is already connected elsewhere, the older connection is closed; its read
// pump unwinds through the normal unregister path.
func (h *Hub) BindAccount(playerID int64, c *Client) {
	h.accountMu.Lock()
	prev := h.accounts[playerID]
	h.accounts[playerID] = c
	h.accountMu.Unlock()
	if prev != nil && prev != c {
		log.Printf("account %d reconnected, closing previous connection", playerID)
		prev.conn.Close()
	}
}

// releaseAccount frees the account slot, but only if c still holds it. A
// takeover by a newer connection must not be undone by the old one's
// teardown.
func (h *Hub) releaseAccount(playerID int64, c *Client) {
	h.accountMu.Lock()
	if h.accounts[playerID] == c {
		delete(h.accounts, playerID)
	}
	h.accountMu.Unlock()
}

// ClientCount reports how many clients are connected, for /healthz.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
