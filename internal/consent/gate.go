package consent

import (
	"context"
	"fmt"
)

// Prompt is spoken before any other agent turn.
const Prompt = "This call may be recorded for quality and training. Do you consent to call recording? Please say yes or no."

// DeclineMessage is spoken when the caller withholds recording consent.
const DeclineMessage = "Understood. We can't proceed without recording consent. Please contact us by email or request a callback."

// SayFunc speaks a line to the caller. ListenFunc returns the caller's next
// transcript; an empty transcript means silence or hangup.
type (
	SayFunc    func(ctx context.Context, text string) error
	ListenFunc func(ctx context.Context) (string, error)
)

// Gate enforces recording consent before the conversation proceeds.
//
// The gate depends on say/listen functions supplied by the session, never the
// other way around: transports stay ignorant of consent policy.
type Gate struct {
	rec       Recorder
	classify  Classifier
	secondary Classifier
	bypass    bool
}

// NewGate builds a consent gate. secondary may be nil; it is consulted only
// when the primary classifier returns Unknown. bypass skips the prompt
// entirely and records nothing; it is rejected by config validation outside
// local environments.
func NewGate(rec Recorder, primary, secondary Classifier, bypass bool) *Gate {
	if primary == nil {
		primary = Classify
	}
	return &Gate{rec: rec, classify: primary, secondary: secondary, bypass: bypass}
}

// EnsureRecordingConsent runs the consent exchange for a call. It returns
// true when the conversation may continue. A false return means the caller
// declined or gave no usable answer; onDecline (if non-nil) has already run.
//
// The consent event is recorded in both directions. Recorder failures on the
// grant path abort the call rather than proceed unrecorded.
func (g *Gate) EnsureRecordingConsent(ctx context.Context, callSID string, say SayFunc, listen ListenFunc, onDecline func(ctx context.Context) error) (bool, error) {
	if g.bypass {
		return true, nil
	}

	if err := say(ctx, Prompt); err != nil {
		return false, fmt.Errorf("consent prompt: %w", err)
	}
	transcript, err := listen(ctx)
	if err != nil {
		return false, fmt.Errorf("consent listen: %w", err)
	}

	res := g.classify(transcript)
	if res == Unknown && g.secondary != nil {
		res = g.secondary(transcript)
	}

	if res == Yes {
		if err := g.record(ctx, callSID, ProofCallerYes); err != nil {
			return false, err
		}
		return true, nil
	}

	proof := ProofNoInput
	if res == No {
		proof = ProofCallerNo
	}
	if err := g.record(ctx, callSID, proof); err != nil {
		return false, err
	}
	if onDecline != nil {
		if err := onDecline(ctx); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (g *Gate) record(ctx context.Context, callSID, proof string) error {
	err := g.rec.RecordConsent(ctx, Event{
		CallSID: callSID,
		Channel: ChannelVoice,
		Type:    TypeRecording,
		Proof:   proof,
	})
	if err != nil {
		return fmt.Errorf("record consent: %w", err)
	}
	return nil
}
