package bookingapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestCreatePublic(t *testing.T) {
	var gotPath, gotAdminHeader string
	var gotReq CreateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAdminHeader = r.Header.Get("X-Admin-Access-Token")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"success":true,"booking":{"id":"bk-101","confirmation_number":"SER-2026-101","practitioner":"Dana"}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "admin-tok", nil)
	booking, err := c.CreatePublic(context.Background(), CreateRequest{
		ClientName:    "Jamie Rivera",
		ClientEmail:   "jamie@example.com",
		ClientPhone:   "555-010-2938",
		ServiceType:   "90min",
		ScheduledDate: "2026-09-14",
		ScheduledTime: "14:00",
		PaymentMethod: "cash",
		PaymentStatus: PaymentStatusUnpaid,
		TotalPrice:    135,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/web-booking/book" {
		t.Fatalf("expected public endpoint, got %s", gotPath)
	}
	if gotAdminHeader != "" {
		t.Fatalf("public create must not carry the admin header, got %q", gotAdminHeader)
	}
	if gotReq.PaymentStatus != "unpaid" || gotReq.PaymentMethod != "cash" {
		t.Fatalf("unexpected payment fields: %+v", gotReq)
	}
	if booking.ConfirmationNumber != "SER-2026-101" || booking.Practitioner != "Dana" {
		t.Fatalf("unexpected booking: %+v", booking)
	}
}

func TestCreateAdminCarriesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/admin/bookings" {
			t.Errorf("expected admin endpoint, got %s", r.URL.Path)
		}
		if r.Header.Get("X-Admin-Access-Token") != "admin-tok" {
			t.Errorf("missing admin token header")
		}
		fmt.Fprint(w, `{"success":true,"booking":{"id":"bk-7"}}`)
	}))
	defer srv.Close()

	booking, err := NewClient(srv.URL, "admin-tok", nil).CreateAdmin(context.Background(), CreateRequest{ServiceType: "60min"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// confirmation number falls back to the booking id
	if booking.ConfirmationNumber != "bk-7" {
		t.Fatalf("expected id fallback, got %q", booking.ConfirmationNumber)
	}
}

func TestCreateUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "wrong", nil).CreateAdmin(context.Background(), CreateRequest{})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCreateRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"success":false,"error":"slot already taken"}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", nil).CreatePublic(context.Background(), CreateRequest{})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}

func TestCreateEnvelopeFailure(t *testing.T) {
	// 200 with success=false must still be rejected.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":false,"error":"validation failed"}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", nil).CreatePublic(context.Background(), CreateRequest{})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}

func TestUpdatePayment(t *testing.T) {
	var gotPath string
	var gotReq UpdatePaymentRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.Header.Get("X-Admin-Access-Token") != "admin-tok" {
			t.Errorf("missing admin token header")
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		fmt.Fprint(w, `{"success":true,"booking":{"id":"bk-7","payment_method":"card"}}`)
	}))
	defer srv.Close()

	booking, err := NewClient(srv.URL, "admin-tok", nil).UpdatePayment(context.Background(), "bk-7", UpdatePaymentRequest{
		PaymentMethod: "card",
		PaymentStatus: PaymentStatusUnpaid,
		TipAmount:     5,
		TotalPrice:    140,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/api/admin/bookings/bk-7" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotReq.TipAmount != 5 || gotReq.TotalPrice != 140 {
		t.Fatalf("unexpected payload: %+v", gotReq)
	}
	if booking.PaymentMethod != "card" {
		t.Fatalf("unexpected booking: %+v", booking)
	}
}

func TestDeleteIdempotentOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, "admin-tok", nil).Delete(context.Background(), "gone-already"); err != nil {
		t.Fatalf("404 delete should be treated as success, got %v", err)
	}
}

func TestDeleteBatchContinuesPastFailures(t *testing.T) {
	var mu sync.Mutex
	deleted := map[string]bool{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/api/bookings/"):]
		if id == "bad-id" {
			http.Error(w, "cannot delete", http.StatusInternalServerError)
			return
		}
		mu.Lock()
		deleted[id] = true
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ids := []string{"bk-1", "bk-2", "bad-id", "bk-3"}
	results := NewClient(srv.URL, "admin-tok", nil).DeleteBatch(context.Background(), ids)

	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if Failed(results) != 1 {
		t.Fatalf("expected exactly 1 failure, got %d", Failed(results))
	}
	if results[2].ID != "bad-id" || results[2].Err == nil {
		t.Fatalf("expected bad-id to fail, got %+v", results[2])
	}
	for _, id := range []string{"bk-1", "bk-2", "bk-3"} {
		if !deleted[id] {
			t.Fatalf("expected %s to be deleted despite earlier failure", id)
		}
	}
}

func TestBookingNumericID(t *testing.T) {
	var b Booking
	if err := json.Unmarshal([]byte(`{"id":417,"practitioner":"Dana"}`), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if b.ID != "417" {
		t.Fatalf("expected numeric id coerced to string, got %q", b.ID)
	}
}
