package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestCreateSession(t *testing.T) {
	var gotReq checkoutRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/api/payments/create-checkout-session" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"sessionId":"cs_abc123","url":"https://checkout.example.com/cs_abc123"}`)
	}))
	defer srv.Close()

	c := NewCheckoutClient(srv.URL, "https://spa.example.com/thanks", "https://spa.example.com/cancelled", nil, nil)
	session, err := c.CreateSession(context.Background(), SessionParams{
		DraftID:        "draft-1",
		BookingRef:     "bk-7",
		AmountCents:    14000,
		Description:    "90 Minute Massage",
		ClientName:     "Jamie Rivera",
		ClientEmail:    "jamie@example.com",
		AdminInitiated: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.ID != "cs_abc123" {
		t.Fatalf("unexpected session id: %s", session.ID)
	}
	if session.RedirectURL != "https://checkout.example.com/cs_abc123" {
		t.Fatalf("unexpected redirect url: %s", session.RedirectURL)
	}

	if gotReq.Amount != 14000 {
		t.Fatalf("unexpected amount: %d", gotReq.Amount)
	}
	if gotReq.SuccessURL != "https://spa.example.com/thanks?draft_id=draft-1" ||
		gotReq.CancelURL != "https://spa.example.com/cancelled?draft_id=draft-1" {
		t.Fatalf("unexpected return urls: %+v", gotReq)
	}
	if gotReq.Metadata["booking_id"] != "bk-7" {
		t.Fatalf("expected booking_id metadata, got %v", gotReq.Metadata)
	}
	if gotReq.Metadata["client_name"] != "Jamie Rivera" || gotReq.Metadata["client_email"] != "jamie@example.com" {
		t.Fatalf("expected client metadata, got %v", gotReq.Metadata)
	}
	if gotReq.Metadata["admin_initiated"] != "true" {
		t.Fatalf("expected admin_initiated metadata, got %v", gotReq.Metadata)
	}
}

func TestCreateSessionSnakeCaseID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"session_id":"cs_snake","url":"https://checkout.example.com/cs_snake"}`)
	}))
	defer srv.Close()

	session, err := NewCheckoutClient(srv.URL, "", "", nil, nil).
		CreateSession(context.Background(), SessionParams{DraftID: "d", AmountCents: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.ID != "cs_snake" {
		t.Fatalf("expected snake_case id accepted, got %q", session.ID)
	}
}

func TestCreateSessionRejectsNonPositiveAmount(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewCheckoutClient(srv.URL, "", "", nil, nil)
	for _, amount := range []int64{0, -50} {
		_, err := c.CreateSession(context.Background(), SessionParams{DraftID: "d", AmountCents: amount})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %d: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
	if called {
		t.Fatal("invalid amounts must be rejected before any network call")
	}
}

func TestCreateSessionGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"amount too small"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewCheckoutClient(srv.URL, "", "", nil, nil).
		CreateSession(context.Background(), SessionParams{DraftID: "d", AmountCents: 100})
	if !errors.Is(err, ErrSessionCreation) {
		t.Fatalf("expected ErrSessionCreation, got %v", err)
	}
}

func TestCreateSessionMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"url":"https://checkout.example.com/mystery"}`)
	}))
	defer srv.Close()

	_, err := NewCheckoutClient(srv.URL, "", "", nil, nil).
		CreateSession(context.Background(), SessionParams{DraftID: "d", AmountCents: 100})
	if !errors.Is(err, ErrSessionCreation) {
		t.Fatalf("expected ErrSessionCreation for missing id, got %v", err)
	}
}

func TestCreateSessionDryRun(t *testing.T) {
	c := NewCheckoutClient("http://unused.example.com", "", "", nil, nil).WithDryRun(true)
	session, err := c.CreateSession(context.Background(), SessionParams{DraftID: "d", AmountCents: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.ID == "" || session.RedirectURL == "" {
		t.Fatalf("expected fake session in dry run, got %+v", session)
	}
}

func TestCreateSessionInvalidatesPriorReference(t *testing.T) {
	// Triggering session creation twice for one draft must leave exactly
	// one active session reference.
	mr := miniredis.RunT(t)
	store := NewSessionStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour, nil)

	n := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n++
		fmt.Fprintf(w, `{"sessionId":"cs_%d","url":"https://checkout.example.com/cs_%d"}`, n, n)
	}))
	defer srv.Close()

	c := NewCheckoutClient(srv.URL, "", "", store, nil)
	ctx := context.Background()

	if _, err := c.CreateSession(ctx, SessionParams{DraftID: "draft-1", AmountCents: 100}); err != nil {
		t.Fatal(err)
	}
	second, err := c.CreateSession(ctx, SessionParams{DraftID: "draft-1", AmountCents: 100})
	if err != nil {
		t.Fatal(err)
	}

	active, err := store.Active(ctx, "draft-1")
	if err != nil {
		t.Fatal(err)
	}
	if active != second.ID {
		t.Fatalf("expected only the second session active, got %q", active)
	}
}
