package rebook_api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BearBump/RebookBox/internal/models"
	"github.com/BearBump/RebookBox/internal/services/lookup"
	"github.com/BearBump/RebookBox/internal/services/rebook"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	res       *models.LookupResult
	reply     string
	err       error
	assistant bool
	panicWith string

	gotReq   models.LookupRequest
	gotDebug bool
	calls    int
}

func (f *fakeService) Lookup(ctx context.Context, req models.LookupRequest, debug bool) (*models.LookupResult, error) {
	f.calls++
	f.gotReq, f.gotDebug = req, debug
	if f.panicWith != "" {
		panic(f.panicWith)
	}
	return f.res, f.err
}

func (f *fakeService) Rebook(ctx context.Context, req models.LookupRequest, debug bool) (*rebook.Rebooking, error) {
	res, err := f.Lookup(ctx, req, debug)
	if err != nil {
		return nil, err
	}
	return &rebook.Rebooking{Result: f.reply, Data: res}, nil
}

func (f *fakeService) AssistantEnabled() bool { return f.assistant }

type fakeStats struct{}

func (fakeStats) Stats() lookup.Stats {
	return lookup.Stats{Started: 3, Succeeded: 2, TimedOut: 1, LastErrorKind: lookup.KindTimeout}
}

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *fakeLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.err
}

const validBody = `{"recordLocator":"ABC123","firstName":"Pedro","lastName":"Feitosa","dobMonth":"9","dobDay":"16","dobYear":"2002"}`

func flight(v string) *string { return &v }

func okService() *fakeService {
	return &fakeService{
		res: &models.LookupResult{
			PassengerName: "Pedro Feitosa",
			Segments:      []models.Segment{{FlightNumber: flight("AA 1234")}},
		},
		reply:     "1. Rebook on AA 2211",
		assistant: true,
	}
}

func do(t *testing.T, h http.Handler, method, path, body string, header map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealth_NoAuth(t *testing.T) {
	h := New(okService(), Options{AuthRequired: true, SharedSecret: "s3cret"}).Handler()
	rec, out := do(t, h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, map[string]any{"ok": true}, out)
}

func TestLookup_OK(t *testing.T) {
	svc := okService()
	h := New(svc, Options{}).Handler()

	rec, out := do(t, h, http.MethodPost, "/lookup", validBody, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "Pedro Feitosa", out["passengerName"])
	require.NotContains(t, out, "warnings")
	require.NotContains(t, out, "debug")

	require.Equal(t, "09", svc.gotReq.DOBMonth)
	require.Equal(t, "16", svc.gotReq.DOBDay)
	require.Equal(t, "2002", svc.gotReq.DOBYear)
	require.False(t, svc.gotDebug)
}

func TestLookup_PadsPaddedInput(t *testing.T) {
	svc := okService()
	h := New(svc, Options{}).Handler()
	body := strings.Replace(strings.Replace(validBody, `"dobMonth":"9"`, `"dobMonth":"09"`, 1), `"dobDay":"16"`, `"dobDay":" 7 "`, 1)

	rec, _ := do(t, h, http.MethodPost, "/lookup", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "09", svc.gotReq.DOBMonth)
	require.Equal(t, "07", svc.gotReq.DOBDay)
}

func TestLookup_DebugFlag(t *testing.T) {
	svc := okService()
	h := New(svc, Options{}).Handler()
	body := strings.TrimSuffix(validBody, "}") + `,"debug":true}`

	rec, _ := do(t, h, http.MethodPost, "/lookup", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, svc.gotDebug)
}

func TestRebook_OK(t *testing.T) {
	h := New(okService(), Options{}).Handler()
	rec, out := do(t, h, http.MethodPost, "/rebook", validBody, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "1. Rebook on AA 2211", out["result"])
	data, ok := out["data"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "Pedro Feitosa", data["passengerName"])
}

func TestRebook_AssistantDisabled(t *testing.T) {
	svc := okService()
	svc.assistant = false
	h := New(svc, Options{}).Handler()

	rec, out := do(t, h, http.MethodPost, "/rebook", validBody, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "assistant is not configured", out["detail"])
	require.Zero(t, svc.calls)
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		code   int
		detail string
	}{
		{name: "missing", code: http.StatusUnauthorized, detail: "Missing Authorization"},
		{name: "wrong scheme", header: map[string]string{"Authorization": "Basic s3cret"}, code: http.StatusForbidden, detail: "Invalid Authorization"},
		{name: "wrong token", header: map[string]string{"Authorization": "Bearer nope"}, code: http.StatusForbidden, detail: "Invalid Authorization"},
		{name: "extra part", header: map[string]string{"Authorization": "Bearer s3cret extra"}, code: http.StatusForbidden, detail: "Invalid Authorization"},
		{name: "token only", header: map[string]string{"Authorization": "s3cret"}, code: http.StatusForbidden, detail: "Invalid Authorization"},
		{name: "ok", header: map[string]string{"Authorization": "Bearer s3cret"}, code: http.StatusOK},
		{name: "ok lowercase scheme", header: map[string]string{"Authorization": "bearer   s3cret"}, code: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(okService(), Options{AuthRequired: true, SharedSecret: "s3cret"}).Handler()
			for _, path := range []string{"/lookup", "/rebook"} {
				rec, out := do(t, h, http.MethodPost, path, validBody, tt.header)
				require.Equal(t, tt.code, rec.Code, path)
				if tt.detail != "" {
					require.Equal(t, tt.detail, out["detail"], path)
				}
			}
		})
	}
}

func TestAuth_NotRequired_PassThrough(t *testing.T) {
	h := New(okService(), Options{AuthRequired: false, SharedSecret: "s3cret"}).Handler()
	rec, _ := do(t, h, http.MethodPost, "/lookup", validBody, map[string]string{"Authorization": "Bearer wrong"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestValidation(t *testing.T) {
	svc := okService()
	h := New(svc, Options{}).Handler()

	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{name: "not json", body: `{`, detail: "invalid JSON body"},
		{name: "missing field", body: `{"recordLocator":"ABC123","firstName":"Pedro","dobMonth":"9","dobDay":"16","dobYear":"2002"}`, detail: "lastName is required"},
		{name: "blank field", body: strings.Replace(validBody, `"ABC123"`, `"  "`, 1), detail: "recordLocator is required"},
		{name: "month", body: strings.Replace(validBody, `"dobMonth":"9"`, `"dobMonth":"13"`, 1), detail: "dobMonth must be a number from 1 to 12"},
		{name: "day", body: strings.Replace(validBody, `"dobDay":"16"`, `"dobDay":"x"`, 1), detail: "dobDay must be a number from 1 to 31"},
		{name: "month leading zeros", body: strings.Replace(validBody, `"dobMonth":"9"`, `"dobMonth":"009"`, 1), detail: "dobMonth must be a number from 1 to 12"},
		{name: "month sign", body: strings.Replace(validBody, `"dobMonth":"9"`, `"dobMonth":"+9"`, 1), detail: "dobMonth must be a number from 1 to 12"},
		{name: "day sign", body: strings.Replace(validBody, `"dobDay":"16"`, `"dobDay":"-1"`, 1), detail: "dobDay must be a number from 1 to 31"},
		{name: "year sign", body: strings.Replace(validBody, `"dobYear":"2002"`, `"dobYear":"+200"`, 1), detail: "dobYear must be a four digit year"},
		{name: "year", body: strings.Replace(validBody, `"dobYear":"2002"`, `"dobYear":"02"`, 1), detail: "dobYear must be a four digit year"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := do(t, h, http.MethodPost, "/lookup", tt.body, nil)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			require.Equal(t, tt.detail, out["detail"])
		})
	}
	require.Zero(t, svc.calls)
}

func TestLookup_ErrorsAre500(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		detail string
	}{
		{name: "not found", err: &lookup.Error{Kind: lookup.KindNotFound, Message: "We can't find a trip."}, detail: "We can't find a trip."},
		{name: "timeout", err: &lookup.Error{Kind: lookup.KindTimeout, Message: "Timed out waiting for reservation page", URL: "https://x", HTMLLength: 42},
			detail: "Timed out waiting for reservation page (url=https://x, htmlLength=42)"},
		{name: "assistant", err: errors.New("ask assistant: status code 500"), detail: "ask assistant: status code 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := okService()
			svc.err = tt.err
			h := New(svc, Options{}).Handler()
			for _, path := range []string{"/lookup", "/rebook"} {
				rec, out := do(t, h, http.MethodPost, path, validBody, nil)
				require.Equal(t, http.StatusInternalServerError, rec.Code)
				require.Equal(t, tt.detail, out["detail"])
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	l := &fakeLimiter{allow: false}
	h := New(okService(), Options{Limiter: l}).Handler()

	rec, out := do(t, h, http.MethodPost, "/lookup", validBody, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "Too many requests", out["detail"])
	require.Equal(t, []string{"192.0.2.1"}, l.keys)

	rec, _ = do(t, h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, l.keys, 1)
}

func TestRateLimit_IgnoresForwardedHeadersByDefault(t *testing.T) {
	l := &fakeLimiter{allow: true}
	h := New(okService(), Options{Limiter: l}).Handler()

	for _, ip := range []string{"198.51.100.0", "198.51.100.1", "198.51.100.2"} {
		rec, _ := do(t, h, http.MethodPost, "/lookup", validBody, map[string]string{
			"X-Forwarded-For": ip,
			"X-Real-IP":       ip,
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Equal(t, []string{"192.0.2.1", "192.0.2.1", "192.0.2.1"}, l.keys)
}

func TestRateLimit_TrustProxyHeaders(t *testing.T) {
	l := &fakeLimiter{allow: true}
	h := New(okService(), Options{Limiter: l, TrustProxyHeaders: true}).Handler()

	rec, _ := do(t, h, http.MethodPost, "/lookup", validBody, map[string]string{"X-Forwarded-For": "203.0.113.7"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"203.0.113.7"}, l.keys)
}

func TestRateLimit_FailOpen(t *testing.T) {
	l := &fakeLimiter{err: errors.New("redis ratelimit: connection refused")}
	h := New(okService(), Options{Limiter: l}).Handler()

	rec, _ := do(t, h, http.MethodPost, "/lookup", validBody, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestStats(t *testing.T) {
	h := New(okService(), Options{Stats: fakeStats{}}).Handler()
	rec, out := do(t, h, http.MethodGet, "/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 3, out["started"])
	require.EqualValues(t, 1, out["timedOut"])
	require.NotContains(t, out, "lastError")
	require.Equal(t, "timeout", out["lastErrorKind"])

	h = New(okService(), Options{}).Handler()
	rec, _ = do(t, h, http.MethodGet, "/stats", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStats_RequiresAuth(t *testing.T) {
	h := New(okService(), Options{AuthRequired: true, SharedSecret: "s3cret", Stats: fakeStats{}}).Handler()

	rec, out := do(t, h, http.MethodGet, "/stats", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Missing Authorization", out["detail"])

	rec, _ = do(t, h, http.MethodGet, "/stats", "", map[string]string{"Authorization": "Bearer s3cret"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestStats_NotRateLimited(t *testing.T) {
	l := &fakeLimiter{allow: false}
	h := New(okService(), Options{Limiter: l, Stats: fakeStats{}}).Handler()

	rec, _ := do(t, h, http.MethodGet, "/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, l.keys)
}

func TestPanic_DetailBody(t *testing.T) {
	svc := okService()
	svc.panicWith = "selector engine exploded"
	h := New(svc, Options{}).Handler()

	rec, out := do(t, h, http.MethodPost, "/lookup", validBody, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "Internal server error", out["detail"])
}
