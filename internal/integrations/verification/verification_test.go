package verification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"loan-origination/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMock_PAN(t *testing.T) {
	m := NewMock("", logger.NewNoOpLogger())
	res, err := m.VerifyPAN(context.Background(), "ABCDE1234F")
	require.NoError(t, err)
	assert.True(t, res.Verified)

	res, err = m.VerifyPAN(context.Background(), "ABCDE12345")
	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.Equal(t, ReasonPANFormat, res.Reason)
}

func TestMock_OTP(t *testing.T) {
	ctx := context.Background()
	m := NewMock("", logger.NewTestLogger(t))
	require.NoError(t, m.SendOTP(ctx, "s-1", "123412341234"))

	res, err := m.VerifyOTP(ctx, "s-1", "123412341234", "000000")
	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.Equal(t, ReasonOTPInvalid, res.Reason)

	res, err = m.VerifyOTP(ctx, "s-1", "123412341234", " 123456 ")
	require.NoError(t, err)
	assert.True(t, res.Verified)

	res, err = m.VerifyOTP(ctx, "s-1", "1234", "123456")
	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.Equal(t, ReasonAadhaarFormat, res.Reason)
}

func TestMock_CustomOTP(t *testing.T) {
	m := NewMock("999999", logger.NewNoOpLogger())
	res, err := m.VerifyOTP(context.Background(), "s-2", "111122223333", "999999")
	require.NoError(t, err)
	assert.True(t, res.Verified)
}

func TestHTTPProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-1", r.Header.Get("X-API-Key"))
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		switch r.URL.Path {
		case "/pan":
			if body["pan"] == "ABCDE1234F" {
				_, _ = w.Write([]byte(`{"valid":true,"name":"ASHA RAO"}`))
				return
			}
			_, _ = w.Write([]byte(`{"valid":false,"reason":"PAN not found"}`))
		case "/ekyc/otp":
			assert.Equal(t, "s-1", body["sessionId"])
			_, _ = w.Write([]byte(`{"valid":true}`))
		case "/ekyc/verify":
			_, _ = w.Write([]byte(`{"valid":` + boolString(body["otp"] == "654321") + `}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := &Config{PANURL: srv.URL + "/pan", EKYCURL: srv.URL + "/ekyc", APIKey: "key-1", Timeout: time.Second}
	require.NoError(t, cfg.Validate())
	p := NewHTTPProvider(cfg, logger.NewTestLogger(t))
	ctx := context.Background()

	res, err := p.VerifyPAN(ctx, "ABCDE1234F")
	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.Equal(t, "ASHA RAO", res.Name)

	res, err = p.VerifyPAN(ctx, "ZZZZZ9999Z")
	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.Equal(t, "PAN not found", res.Reason)

	require.NoError(t, p.SendOTP(ctx, "s-1", "123412341234"))

	res, err = p.VerifyOTP(ctx, "s-1", "123412341234", "654321")
	require.NoError(t, err)
	assert.True(t, res.Verified)
}

func TestHTTPProvider_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewHTTPProvider(&Config{PANURL: srv.URL, EKYCURL: srv.URL, Timeout: time.Second}, logger.NewNoOpLogger())
	_, err := p.VerifyPAN(context.Background(), "ABCDE1234F")
	assert.Error(t, err)
	assert.Error(t, p.SendOTP(context.Background(), "s", "123412341234"))
}

func TestConfig_Validate(t *testing.T) {
	assert.Error(t, (&Config{EKYCURL: "x", Timeout: time.Second}).Validate())
	assert.Error(t, (&Config{PANURL: "x", Timeout: time.Second}).Validate())
	assert.Error(t, (&Config{PANURL: "x", EKYCURL: "y"}).Validate())
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
