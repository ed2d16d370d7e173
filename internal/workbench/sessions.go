package workbench

import (
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/po-intake/constants"
	"github.com/joseph-ayodele/po-intake/internal/common"
	"github.com/joseph-ayodele/po-intake/internal/entity"
)

const anonymousUser = "anonymous"

type session struct {
	wb       *Workbench
	lastSeen time.Time
}

// Sessions keeps one workbench per user. A user whose identity changes
// (admin flag or assigned code) gets a fresh workbench.
type Sessions struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger
	now    func() time.Time

	mu   sync.Mutex
	byID map[string]*session
}

func NewSessions(cfg Config, deps Deps, logger *slog.Logger) *Sessions {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sessions{cfg: cfg, deps: deps, logger: logger, now: time.Now, byID: make(map[string]*session)}
}

func sessionKey(username string) string {
	if username == "" {
		return anonymousUser
	}
	return username
}

// Get returns the workbench for identity and whether it was just created.
func (s *Sessions) Get(identity entity.Identity) (*Workbench, bool) {
	key := sessionKey(identity.Username)

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.byID[key]; ok && cur.wb.Identity() == identity {
		cur.lastSeen = s.now()
		return cur.wb, false
	}
	wb := New(identity, s.cfg, s.deps, s.logger)
	s.byID[key] = &session{wb: wb, lastSeen: s.now()}
	s.logger.Debug("workbench.session.created", "user", key)
	return wb, true
}

// Drop forgets the workbench of a user. A user without one is not an error;
// a running batch is.
func (s *Sessions) Drop(username string) error {
	_, err := s.drop(sessionKey(username), time.Time{})
	return err
}

// drop deletes key unless its batch is running or, for a non-zero cutoff,
// it was seen after cutoff.
func (s *Sessions) drop(key string, cutoff time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[key]
	if !ok || (!cutoff.IsZero() && !cur.lastSeen.Before(cutoff)) {
		return false, nil
	}
	if cur.wb.orch.Status() == constants.RunStatusSubmitting {
		return false, common.NewAppError(common.CodePrecondition, "A batch is already being processed", common.ErrBatchInProgress)
	}
	delete(s.byID, key)
	s.logger.Debug("workbench.session.dropped", "user", key)
	return true, nil
}

// Sweep drops every idle session not seen for maxIdle and returns how many
// went. Running batches are never dropped.
func (s *Sessions) Sweep(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	var stale []string
	for key, cur := range s.byID {
		if cur.lastSeen.Before(cutoff) {
			stale = append(stale, key)
		}
	}
	s.mu.Unlock()

	removed := 0
	for _, key := range stale {
		if ok, _ := s.drop(key, cutoff); ok {
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("workbench.sessions.swept", "removed", removed, "remaining", s.Len())
	}
	return removed
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
