package telephony

import (
	"strings"
	"testing"
)

func TestVoiceAnswer(t *testing.T) {
	out, err := VoiceAnswer("wss://example.com/media?CallSid=CA123")
	if err != nil {
		t.Fatalf("VoiceAnswer: %v", err)
	}
	if !strings.Contains(out, RecordingDisclosure) {
		t.Errorf("missing recording disclosure in %q", out)
	}
	if !strings.Contains(out, `<Stream url="wss://example.com/media?CallSid=CA123">`) &&
		!strings.Contains(out, `<Stream url="wss://example.com/media?CallSid=CA123"></Stream>`) {
		t.Errorf("missing stream element in %q", out)
	}
	if !strings.Contains(out, "<Connect>") {
		t.Errorf("missing Connect verb in %q", out)
	}
}

func TestVoiceAnswer_RequiresStreamURL(t *testing.T) {
	if _, err := VoiceAnswer(""); err == nil {
		t.Fatal("expected error for empty stream url")
	}
}

func TestEscalationAnswer(t *testing.T) {
	out, err := EscalationAnswer("+15555550100")
	if err != nil {
		t.Fatalf("EscalationAnswer: %v", err)
	}
	if !strings.Contains(out, "<Number>+15555550100</Number>") {
		t.Errorf("missing dial target in %q", out)
	}
	if !strings.Contains(out, "Transferring you to a live operator") {
		t.Errorf("missing transfer announcement in %q", out)
	}

	if _, err := EscalationAnswer(""); err == nil {
		t.Fatal("expected error for empty operator number")
	}
}

func TestSMSReply(t *testing.T) {
	out, err := SMSReply("Got it!")
	if err != nil {
		t.Fatalf("SMSReply: %v", err)
	}
	if !strings.Contains(out, "<Message>Got it!</Message>") {
		t.Errorf("missing message body in %q", out)
	}
}

func TestRejectAnswer(t *testing.T) {
	out, err := RejectAnswer()
	if err != nil {
		t.Fatalf("RejectAnswer: %v", err)
	}
	if !strings.Contains(out, `reason="busy"`) {
		t.Errorf("missing busy reason in %q", out)
	}
}

func TestHangupAnswer(t *testing.T) {
	out, err := HangupAnswer("Goodbye.")
	if err != nil {
		t.Fatalf("HangupAnswer: %v", err)
	}
	if !strings.Contains(out, "<Say>Goodbye.</Say>") {
		t.Errorf("missing farewell in %q", out)
	}
	if !strings.Contains(out, "<Hangup>") {
		t.Errorf("missing hangup verb in %q", out)
	}

	out, err = HangupAnswer("")
	if err != nil {
		t.Fatalf("HangupAnswer empty: %v", err)
	}
	if strings.Contains(out, "<Say>") {
		t.Errorf("unexpected Say for empty text in %q", out)
	}
}
