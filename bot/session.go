package bot

import (
	"sync"
	"time"

	"luckydraw/domain/entities"
)

// sessionTTL is how long an idle wizard survives
const sessionTTL = 15 * time.Minute

// Step is a position in one of the multi-step wizards
type Step string

const (
	StepRegisterPhone Step = "register_phone"
	StepRegisterName  Step = "register_name"

	StepDepositMethod Step = "deposit_method"
	StepDepositAmount Step = "deposit_amount"
	StepDepositProof  Step = "deposit_proof"

	StepWithdrawMethod Step = "withdraw_method"
	StepWithdrawName   Step = "withdraw_name"
	StepWithdrawPhone  Step = "withdraw_phone"
	StepWithdrawAmount Step = "withdraw_amount"

	StepTicketCount   Step = "ticket_count"
	StepTicketConfirm Step = "ticket_confirm"

	StepAdName    Step = "ad_name"
	StepAdTitle   Step = "ad_title"
	StepAdContent Step = "ad_content"
	StepAdType    Step = "ad_type"
	StepAdConfirm Step = "ad_confirm"
)

// Session is one user's in-progress wizard
type Session struct {
	UserID    int64
	Step      Step
	Phone     string
	Method    entities.PaymentMethod
	Amount    int64
	Name      string
	Count     int
	Ad        entities.AdDraft
	Timestamp time.Time
}

// SessionStore keeps at most one wizard per user
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates an empty store with the standard idle expiry
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*Session),
		ttl:      sessionTTL,
		now:      time.Now,
	}
}

// Get returns a copy of the user's live session, or nil when none or expired
func (s *SessionStore) Get(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		return nil
	}
	if s.now().Sub(session.Timestamp) > s.ttl {
		delete(s.sessions, userID)
		return nil
	}
	copied := *session
	return &copied
}

// Start replaces any session of the user with a fresh one at step
func (s *SessionStore) Start(userID int64, step Step) *Session {
	session := &Session{UserID: userID, Step: step}
	s.Save(session)
	return session
}

// Save stores the session and refreshes its idle timer
func (s *SessionStore) Save(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *session
	copied.Timestamp = s.now()
	s.sessions[session.UserID] = &copied
}

// Clear drops the user's session; it reports whether one was active
func (s *SessionStore) Clear(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[userID]
	delete(s.sessions, userID)
	return ok && s.now().Sub(session.Timestamp) <= s.ttl
}

// Cleanup removes expired sessions
func (s *SessionStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	now := s.now()
	for userID, session := range s.sessions {
		if now.Sub(session.Timestamp) > s.ttl {
			delete(s.sessions, userID)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired ones included
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
