package agent

import "sync"

// Registry routes out-of-band events (payment webhooks) to live sessions.
//
// A session registers its event channel under its call SID and binds job IDs
// as bookings commit. Delivery is non-blocking: if the caller already hung
// up, the ledger row is the durable record and the notification is dropped.
type Registry struct {
	mu     sync.Mutex
	byCall map[string]chan<- Event
	byJob  map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		byCall: make(map[string]chan<- Event),
		byJob:  make(map[string]string),
	}
}

func (r *Registry) Register(callSID string, ch chan<- Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byCall[callSID] = ch
}

func (r *Registry) Unregister(callSID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byCall, callSID)
	for job, sid := range r.byJob {
		if sid == callSID {
			delete(r.byJob, job)
		}
	}
}

// BindJob associates a committed booking with the call that made it.
func (r *Registry) BindJob(jobID, callSID string) {
	if jobID == "" || callSID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byJob[jobID] = callSID
}

// NotifyPayment implements payments.Notifier.
func (r *Registry) NotifyPayment(jobID string, ok bool) {
	r.mu.Lock()
	ch, found := r.byCall[r.byJob[jobID]]
	r.mu.Unlock()
	if !found {
		return
	}
	select {
	case ch <- Event{Type: EventPaymentResult, PaymentOK: ok}:
	default:
	}
}
