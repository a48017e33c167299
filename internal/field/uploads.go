package field

import "sync"

// Uploads tracks which file questions have an upload in flight.
type Uploads struct {
	mu     sync.Mutex
	active map[string]int
}

func NewUploads() *Uploads {
	return &Uploads{active: map[string]int{}}
}

func (u *Uploads) Begin(questionID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.active[questionID]++
}

func (u *Uploads) Done(questionID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.active[questionID] <= 1 {
		delete(u.active, questionID)
		return
	}
	u.active[questionID]--
}

func (u *Uploads) Active(questionID string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.active[questionID] > 0
}
