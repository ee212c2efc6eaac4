package core

import (
	log "github.com/sirupsen/logrus"
)

// Teardown collects destruction steps while resources are acquired
// and releases them in the exact reverse of the order they were pushed.
// Resources created from other resources must go away first, and since
// the whole object graph is built in one fixed sequence, pushing each
// destroy step at creation time encodes the release order by construction.
// Not safe for concurrent use, the bootstrap is single threaded.
type Teardown struct {
	steps []teardownStep
	spent bool
}

type teardownStep struct {
	name    string
	destroy func()
}

// Push registers a named destruction step. Steps pushed after
// Run has been called are dropped.
func (t *Teardown) Push(name string, destroy func()) {
	if t.spent {
		return
	}
	t.steps = append(t.steps, teardownStep{
		name:    name,
		destroy: destroy,
	})
}

// Run executes all registered steps newest first. It runs at most
// once, later calls do nothing. Steps that were never pushed because
// setup failed midway are simply not there to run.
func (t *Teardown) Run() {
	if t.spent {
		return
	}
	t.spent = true

	for i := len(t.steps) - 1; i >= 0; i-- {
		log.Debug("destroying " + t.steps[i].name)
		t.steps[i].destroy()
	}
	t.steps = nil
}

// Steps lists the names of pending steps in the order they were pushed
func (t *Teardown) Steps() []string {
	names := make([]string, len(t.steps))
	for i, s := range t.steps {
		names[i] = s.name
	}
	return names
}
