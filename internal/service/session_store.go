package service

import "sync"

// userState: всё, что движок знает о пользователе. Поля меняются только
// под mu: это единая точка сериализации для событий пользователя и таймеров.
type userState struct {
	mu             sync.Mutex
	pendingSubject string
	selecting      bool
	session        *QuizSession
}

// SessionStore хранит не более одной сессии на пользователя.
type SessionStore struct {
	mu    sync.Mutex
	users map[int64]*userState
}

func NewSessionStore() *SessionStore {
	return &SessionStore{users: make(map[int64]*userState)}
}

// lock возвращает состояние пользователя под его замком.
func (s *SessionStore) lock(userID int64) *userState {
	s.mu.Lock()
	st, ok := s.users[userID]
	if !ok {
		st = &userState{}
		s.users[userID] = st
	}
	s.mu.Unlock()

	st.mu.Lock()
	return st
}

// get возвращает снимок активной сессии пользователя.
func (s *SessionStore) get(userID int64) (Snapshot, bool) {
	st := s.lock(userID)
	defer st.mu.Unlock()

	if st.session == nil {
		return Snapshot{}, false
	}
	return st.session.snapshot(), true
}

// status: положение пользователя в автомате без учёта завершённых попыток.
func (s *SessionStore) status(userID int64) Status {
	st := s.lock(userID)
	defer st.mu.Unlock()

	switch {
	case st.session != nil:
		return st.session.Status
	case st.selecting:
		return StatusSelectingSubject
	}
	return StatusNoSession
}

// pendingSubject: выбранный, но ещё не начатый предмет.
func (s *SessionStore) pendingSubject(userID int64) string {
	st := s.lock(userID)
	defer st.mu.Unlock()
	return st.pendingSubject
}

// Active: число пользователей с идущим экзаменом.
func (s *SessionStore) Active() int {
	s.mu.Lock()
	states := make([]*userState, 0, len(s.users))
	for _, st := range s.users {
		states = append(states, st)
	}
	s.mu.Unlock()

	n := 0
	for _, st := range states {
		st.mu.Lock()
		if st.session != nil {
			n++
		}
		st.mu.Unlock()
	}
	return n
}

// put и drop вызываются под замком st.
func (st *userState) put(sess *QuizSession) {
	st.session = sess
	st.selecting = false
}

func (st *userState) drop() *QuizSession {
	sess := st.session
	st.session = nil
	return sess
}

// current возвращает сессию, если это всё ещё попытка с указанным id.
func (st *userState) current(sessionID string) *QuizSession {
	if st.session == nil || st.session.ID != sessionID {
		return nil
	}
	return st.session
}
