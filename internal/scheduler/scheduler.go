// Package scheduler запускает отложенные и периодические задачи.
// Отмена кооперативная: она запрещает будущие срабатывания, но не прерывает
// уже начавшийся вызов fn.
package scheduler

import (
	"sync"
	"time"
)

// Handle идентифицирует запланированную задачу. Нулевое значение не выдаётся.
type Handle uint64

type Scheduler interface {
	ScheduleOnce(delay time.Duration, fn func()) Handle
	// SchedulePeriodic впервые вызывает fn через interval, затем каждые interval.
	SchedulePeriodic(interval time.Duration, fn func()) Handle
	// Cancel возвращает false, если задача уже выполнена или отменена.
	Cancel(h Handle) bool
	Pending() int
	Stop()
}

// TimerScheduler работает поверх time.AfterFunc, каждая задача в своей горутине.
type TimerScheduler struct {
	mu     sync.Mutex
	seq    Handle
	jobs   map[Handle]*time.Timer
	closed bool
}

func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{jobs: make(map[Handle]*time.Timer)}
}

func (s *TimerScheduler) ScheduleOnce(delay time.Duration, fn func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	h := s.seq
	if s.closed {
		return h
	}
	if delay < 0 {
		delay = 0
	}
	s.jobs[h] = time.AfterFunc(delay, func() {
		if s.take(h) {
			fn()
		}
	})
	return h
}

func (s *TimerScheduler) SchedulePeriodic(interval time.Duration, fn func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	h := s.seq
	if s.closed {
		return h
	}

	var run func()
	run = func() {
		if !s.alive(h) {
			return
		}
		fn()

		s.mu.Lock()
		defer s.mu.Unlock()
		// fn мог отменить саму задачу
		if _, ok := s.jobs[h]; ok {
			s.jobs[h] = time.AfterFunc(interval, run)
		}
	}
	s.jobs[h] = time.AfterFunc(interval, run)
	return h
}

func (s *TimerScheduler) Cancel(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.jobs[h]
	if !ok {
		return false
	}
	t.Stop()
	delete(s.jobs, h)
	return true
}

func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Stop отменяет все задачи; новые задачи после Stop не запускаются.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for h, t := range s.jobs {
		t.Stop()
		delete(s.jobs, h)
	}
	s.closed = true
}

func (s *TimerScheduler) alive(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[h]
	return ok
}

// take снимает одноразовую задачу с учёта перед запуском.
func (s *TimerScheduler) take(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[h]; !ok {
		return false
	}
	delete(s.jobs, h)
	return true
}
