package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskLocksSerializeSameID(t *testing.T) {
	l := newTaskLocks()

	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.lock(7)
			defer unlock()
			v := counter
			v++
			counter = v
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, l.size(), "entries should be released")
}

func TestTaskLocksIndependentIDs(t *testing.T) {
	l := newTaskLocks()

	unlockA := l.lock(1)
	done := make(chan struct{})
	go func() {
		unlock := l.lock(2)
		unlock()
		close(done)
	}()
	<-done

	assert.Equal(t, 1, l.size())
	unlockA()
	assert.Equal(t, 0, l.size())
}
