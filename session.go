package main

import (
	"sync"
)

const maxSessions = 50

// Session is one joinable arena with its own authoritative world
type Session struct {
	ID    string
	Name  string
	World *World
}

// SessionManager tracks live sessions and reaps them once the last actor
// leaves.
type SessionManager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	analytics *Analytics
}

func NewSessionManager(analytics *Analytics) *SessionManager {
	return &SessionManager{
		sessions:  make(map[string]*Session),
		analytics: analytics,
	}
}

// CreateSession spins up a session with its own simulation loop. Returns nil
// once the session cap is reached.
func (sm *SessionManager) CreateSession(name string) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= maxSessions {
		return nil
	}

	id := GenerateUUID()
	sess := &Session{
		ID:    id,
		Name:  name,
		World: NewWorld(id, sm.analytics),
	}
	sm.sessions[id] = sess
	go sess.World.Run()
	if sm.analytics != nil {
		sm.analytics.Track(EvtSessionStart, 0, id, "")
		sm.analytics.SetActiveSessions(len(sm.sessions))
	}
	return sess
}

func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// RemovePlayer removes an actor from a session, reaping the session once
// it is empty
func (sm *SessionManager) RemovePlayer(sessionID, actorID string) {
	sm.mu.RLock()
	sess, ok := sm.sessions[sessionID]
	sm.mu.RUnlock()
	if !ok {
		return
	}
	sess.World.RemoveActor(actorID)

	if sess.World.ActorCount() == 0 {
		sess.World.Stop()
		sm.mu.Lock()
		delete(sm.sessions, sessionID)
		n := len(sm.sessions)
		sm.mu.Unlock()
		if sm.analytics != nil {
			sm.analytics.Track(EvtSessionEnd, 0, sessionID, "")
			sm.analytics.SetActiveSessions(n)
		}
	}
}

// ListSessions snapshots the joinable sessions for the lobby list.
func (sm *SessionManager) ListSessions() []SessionInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	list := make([]SessionInfo, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		list = append(list, SessionInfo{
			ID:      sess.ID,
			Name:    sess.Name,
			Players: sess.World.ActorCount(),
		})
	}
	return list
}
