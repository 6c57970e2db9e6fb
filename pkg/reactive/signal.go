package reactive

import "slices"

// subscription records when an observer subscribed so that notifications
// in the same flush pass can be held back.
type subscription struct {
	obs   *Observer
	epoch uint64
}

// Signal is a change notifier. It holds no value; stateful primitives
// embed one per observable slot.
type Signal struct {
	rt   *Runtime
	id   uint64
	subs []subscription
}

// NewSignal creates a Signal bound to rt.
func (rt *Runtime) NewSignal() *Signal {
	return &Signal{rt: rt, id: rt.id()}
}

// ID returns the signal id, unique within its runtime.
func (s *Signal) ID() uint64 {
	return s.id
}

// Track subscribes the current observer, if any.
func (s *Signal) Track() {
	if o := s.rt.Current(); o != nil {
		s.Subscribe(o)
	}
}

// Subscribe adds o to the subscriber list. Subscribing twice is a no-op;
// a disposed observer is never subscribed.
func (s *Signal) Subscribe(o *Observer) {
	if o == nil || o.disposed {
		return
	}
	for _, sub := range s.subs {
		if sub.obs == o {
			return
		}
	}
	var epoch uint64
	if sched := s.rt.sched; sched.InPass() {
		epoch = sched.Pass()
	}
	s.subs = append(s.subs, subscription{obs: o, epoch: epoch})
	o.sources = append(o.sources, s)
}

// Unsubscribe removes o from the subscriber list.
func (s *Signal) Unsubscribe(o *Observer) {
	if o == nil {
		return
	}
	s.drop(o)
	o.sources = slices.DeleteFunc(o.sources, func(src *Signal) bool { return src == s })
}

// drop removes o without touching o's source list.
func (s *Signal) drop(o *Observer) {
	s.subs = slices.DeleteFunc(s.subs, func(sub subscription) bool { return sub.obs == o })
}

// Subscribers returns the number of subscribed observers.
func (s *Signal) Subscribers() int {
	return len(s.subs)
}

// Notify delivers a change to every observer subscribed when the call
// began. Subscriptions created during the current flush pass are delivered
// in the next pass.
func (s *Signal) Notify() {
	if len(s.subs) == 0 {
		return
	}
	subs := slices.Clone(s.subs)

	sched := s.rt.sched
	inPass := sched.InPass()
	pass := sched.Pass()
	for _, sub := range subs {
		sub.obs.deliver(inPass && sub.epoch == pass)
	}
}
