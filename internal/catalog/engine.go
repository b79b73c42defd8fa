package catalog

import (
	"sync"

	"github.com/noah-isme/subject-catalog-api/internal/models"
)

// Change describes the catalog after a mutation.
type Change struct {
	Version uint64        `json:"version"`
	Source  models.Source `json:"source"`
	Size    int           `json:"size"`
}

// Engine holds the authoritative record set shared by every view. Readers
// receive copies; writers replace or edit the set under a lock and notify
// subscribers so their views recompute.
type Engine struct {
	mu         sync.RWMutex
	records    []models.Subject
	source     models.Source
	loaded     bool
	version    uint64
	fetchSeq   uint64
	appliedSeq uint64

	subscribers map[uint64]chan Change
	nextSub     uint64
}

// NewEngine returns an empty engine.
func NewEngine() *Engine {
	return &Engine{
		records:     []models.Subject{},
		subscribers: make(map[uint64]chan Change),
	}
}

// Snapshot returns a copy of the current record set.
func (e *Engine) Snapshot() []models.Subject {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append(make([]models.Subject, 0, len(e.records)), e.records...)
}

// Find returns a copy of the record with id.
func (e *Engine) Find(id string) (models.Subject, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Find(e.records, id)
}

// Source reports where the current set came from.
func (e *Engine) Source() models.Source {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.source
}

// Loaded reports whether any fetch has been applied.
func (e *Engine) Loaded() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loaded
}

// Version increases on every change to the set.
func (e *Engine) Version() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

// Len returns the number of records held.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.records)
}

// BeginFetch allocates the sequence number for a new list fetch.
func (e *Engine) BeginFetch() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fetchSeq++
	return e.fetchSeq
}

// ApplyFetch installs the result of fetch seq and reports whether the set
// changed. Results older than the last applied fetch are discarded. A
// fallback result only replaces an engine that has never been loaded; once
// data is present it is kept, optimistic entries included.
func (e *Engine) ApplyFetch(seq uint64, set models.SubjectSet) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if seq <= e.appliedSeq {
		return false
	}
	e.appliedSeq = seq
	if set.Fallback() && e.loaded {
		return false
	}

	records := set.Subjects
	if records == nil {
		records = []models.Subject{}
	}
	e.records = append(make([]models.Subject, 0, len(records)), records...)
	e.source = set.Source
	e.loaded = true
	e.changedLocked()
	return true
}

// Append adds subject to the end of the set, replacing any record that
// already uses its id.
func (e *Engine) Append(subject models.Subject) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.indexLocked(subject.ID); i >= 0 {
		e.records[i] = subject
	} else {
		e.records = append(e.records, subject)
	}
	e.loaded = true
	e.changedLocked()
}

// Replace swaps in subject for the record with the same id.
func (e *Engine) Replace(subject models.Subject) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexLocked(subject.ID)
	if i < 0 {
		return false
	}
	e.records[i] = subject
	e.changedLocked()
	return true
}

// Remove drops the record with id.
func (e *Engine) Remove(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexLocked(id)
	if i < 0 {
		return false
	}
	e.records = append(e.records[:i:i], e.records[i+1:]...)
	e.changedLocked()
	return true
}

// Subscribe returns a channel that receives the latest Change after every
// mutation. Notifications coalesce: a slow reader only sees the newest one.
// Call cancel to release the subscription.
func (e *Engine) Subscribe() (<-chan Change, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSub
	e.nextSub++
	ch := make(chan Change, 1)
	e.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			delete(e.subscribers, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (e *Engine) indexLocked(id string) int {
	for i := range e.records {
		if e.records[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) changedLocked() {
	e.version++
	change := Change{Version: e.version, Source: e.source, Size: len(e.records)}
	for _, ch := range e.subscribers {
		select {
		case ch <- change:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- change
		}
	}
}
