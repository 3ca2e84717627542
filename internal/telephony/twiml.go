package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
)

// TwiML is a minimal Twilio Markup Language response builder.
// It intentionally avoids any provider SDK dependency.
//
// Only include primitives we need at the adapter boundary.

// RecordingDisclosure is spoken before audio bridges to the agent. Required
// on every answered call; the in-call consent exchange happens later, this
// is the upfront notice.
const RecordingDisclosure = "Thanks for calling. This call may be recorded for quality assurance."

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Text    string   `xml:",chardata"`
}

type twimlConnect struct {
	XMLName xml.Name    `xml:"Connect"`
	Stream  twimlStream `xml:"Stream"`
}

type twimlStream struct {
	URL string `xml:"url,attr"`
}

type twimlDial struct {
	XMLName xml.Name `xml:"Dial"`
	Number  string   `xml:"Number,omitempty"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

type twimlMessage struct {
	XMLName xml.Name `xml:"Message"`
	Body    string   `xml:",chardata"`
}

type twimlReject struct {
	XMLName xml.Name `xml:"Reject"`
	Reason  string   `xml:"reason,attr,omitempty"`
}

func render(r twimlResponse) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// VoiceAnswer is the webhook reply that discloses recording and bridges the
// call audio to our media WebSocket.
func VoiceAnswer(streamURL string) (string, error) {
	if streamURL == "" {
		return "", errors.New("telephony: stream url required")
	}
	return render(twimlResponse{Verbs: []any{
		twimlSay{Text: RecordingDisclosure},
		twimlConnect{Stream: twimlStream{URL: streamURL}},
	}})
}

// EscalationAnswer transfers the caller to a human operator.
func EscalationAnswer(operatorNumber string) (string, error) {
	if operatorNumber == "" {
		return "", errors.New("telephony: operator number required")
	}
	return render(twimlResponse{Verbs: []any{
		twimlSay{Text: "Transferring you to a live operator now."},
		twimlDial{Number: operatorNumber},
	}})
}

// SMSReply acknowledges an inbound text.
func SMSReply(body string) (string, error) {
	if body == "" {
		return "", errors.New("telephony: reply body required")
	}
	return render(twimlResponse{Verbs: []any{twimlMessage{Body: body}}})
}

// RejectAnswer declines a call without connecting media.
func RejectAnswer() (string, error) {
	return render(twimlResponse{Verbs: []any{twimlReject{Reason: "busy"}}})
}

// HangupAnswer terminates the call politely after a final line.
func HangupAnswer(text string) (string, error) {
	verbs := []any{}
	if text != "" {
		verbs = append(verbs, twimlSay{Text: text})
	}
	verbs = append(verbs, twimlHangup{})
	return render(twimlResponse{Verbs: verbs})
}
