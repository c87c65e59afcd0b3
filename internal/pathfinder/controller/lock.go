package controller

// lock guards one kind of in-flight action. It is only touched from the
// tick goroutine, so it needs no synchronisation.
type lock struct{ held bool }

func (l *lock) TryAcquire() bool {
	if l.held {
		return false
	}
	l.held = true
	return true
}

func (l *lock) Release() { l.held = false }
