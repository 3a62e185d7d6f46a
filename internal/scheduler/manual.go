package scheduler

import (
	"sync"
	"time"
)

// Manual: планировщик с виртуальным временем. Задачи выполняются синхронно
// внутри Advance в порядке времени срабатывания, при равенстве: в порядке
// постановки.
type Manual struct {
	mu   sync.Mutex
	now  time.Time
	seq  Handle
	jobs map[Handle]*manualJob
}

type manualJob struct {
	at       time.Time
	interval time.Duration
	fn       func()
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start, jobs: make(map[Handle]*manualJob)}
}

// Now подходит как источник времени для компонентов под тестом.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) ScheduleOnce(delay time.Duration, fn func()) Handle {
	if delay < 0 {
		delay = 0
	}
	return m.add(delay, 0, fn)
}

func (m *Manual) SchedulePeriodic(interval time.Duration, fn func()) Handle {
	return m.add(interval, interval, fn)
}

func (m *Manual) add(delay, interval time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	m.jobs[m.seq] = &manualJob{at: m.now.Add(delay), interval: interval, fn: fn}
	return m.seq
}

func (m *Manual) Cancel(h Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[h]; !ok {
		return false
	}
	delete(m.jobs, h)
	return true
}

func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// Scheduled сообщает, ждёт ли задача h своего срабатывания.
func (m *Manual) Scheduled(h Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.jobs[h]
	return ok
}

func (m *Manual) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = make(map[Handle]*manualJob)
}

// Advance сдвигает часы на d, выполняя все задачи, срок которых наступил.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		h, job := m.nextDue(target)
		if job == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = job.at
		if job.interval > 0 {
			job.at = job.at.Add(job.interval)
		} else {
			delete(m.jobs, h)
		}
		fn := job.fn
		m.mu.Unlock()

		fn()
	}
}

func (m *Manual) nextDue(target time.Time) (Handle, *manualJob) {
	var (
		best    Handle
		bestJob *manualJob
	)
	for h, j := range m.jobs {
		if j.at.After(target) {
			continue
		}
		if bestJob == nil || j.at.Before(bestJob.at) || (j.at.Equal(bestJob.at) && h < best) {
			best, bestJob = h, j
		}
	}
	return best, bestJob
}
