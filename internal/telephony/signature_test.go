package telephony

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestValidSignature_RoundTrip(t *testing.T) {
	form := url.Values{}
	form.Set("CallSid", "CA123")
	form.Set("From", "+15555550142")
	form.Set("To", "+15555550100")

	const token = "test-auth-token"
	const fullURL = "https://hvac.example.com/webhooks/twilio/voice"

	sig := SignRequest(token, fullURL, form)
	if !ValidSignature(token, fullURL, form, sig) {
		t.Fatal("signature should validate against its own inputs")
	}

	if ValidSignature(token, fullURL, form, "bogus") {
		t.Error("bogus signature accepted")
	}
	if ValidSignature("wrong-token", fullURL, form, sig) {
		t.Error("signature accepted under wrong auth token")
	}
	if ValidSignature(token, fullURL+"x", form, sig) {
		t.Error("signature accepted for different URL")
	}

	tampered := url.Values{}
	for k := range form {
		tampered.Set(k, form.Get(k))
	}
	tampered.Set("From", "+19999999999")
	if ValidSignature(token, fullURL, tampered, sig) {
		t.Error("signature accepted after parameter tampering")
	}
}

func TestValidSignature_EmptyInputs(t *testing.T) {
	form := url.Values{"CallSid": {"CA1"}}
	if ValidSignature("", "https://x.example.com/v", form, SignRequest("", "https://x.example.com/v", form)) {
		t.Error("empty auth token must never validate")
	}
	if ValidSignature("token", "https://x.example.com/v", form, "") {
		t.Error("empty signature must never validate")
	}
}

func requireSignatureRouter(token, base string, enabled bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhooks/twilio/voice", RequireSignature(token, base, enabled), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func postForm(t *testing.T, r *gin.Engine, path string, form url.Values, sig string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if sig != "" {
		req.Header.Set(signatureHeader, sig)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireSignature_Middleware(t *testing.T) {
	const token = "token-1"
	const base = "https://hvac.example.com"
	form := url.Values{"CallSid": {"CA42"}, "From": {"+15555550142"}}
	sig := SignRequest(token, base+"/webhooks/twilio/voice", form)

	r := requireSignatureRouter(token, base, true)

	if w := postForm(t, r, "/webhooks/twilio/voice", form, sig); w.Code != http.StatusOK {
		t.Errorf("valid signature rejected: status %d", w.Code)
	}
	if w := postForm(t, r, "/webhooks/twilio/voice", form, "nope"); w.Code != http.StatusForbidden {
		t.Errorf("invalid signature status = %d, want 403", w.Code)
	}
	if w := postForm(t, r, "/webhooks/twilio/voice", form, ""); w.Code != http.StatusForbidden {
		t.Errorf("missing signature status = %d, want 403", w.Code)
	}
}

func TestRequireSignature_DisabledPassesThrough(t *testing.T) {
	r := requireSignatureRouter("token-1", "https://hvac.example.com", false)
	form := url.Values{"CallSid": {"CA42"}}
	if w := postForm(t, r, "/webhooks/twilio/voice", form, ""); w.Code != http.StatusOK {
		t.Errorf("disabled middleware status = %d, want 200", w.Code)
	}
}
