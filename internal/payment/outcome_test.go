package payment

import (
	"net/url"
	"testing"
)

func TestOutcomeRedirectSuccess(t *testing.T) {
	o := Outcome{Success: true, ReservationID: "res1", Method: MethodEsewa}

	raw := o.RedirectURL("https://stay.example.com")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("Expected valid URL, got %q: %v", raw, err)
	}
	if u.Path != "/payment-success" {
		t.Errorf("Expected /payment-success path, got %s", u.Path)
	}
	q := u.Query()
	if q.Get("status") != "success" {
		t.Errorf("Expected status=success, got %q", q.Get("status"))
	}
	if q.Get("reservationId") != "res1" {
		t.Errorf("Expected reservationId=res1, got %q", q.Get("reservationId"))
	}
	if q.Get("gateway") != "esewa" {
		t.Errorf("Expected gateway=esewa, got %q", q.Get("gateway"))
	}
}

func TestOutcomeRedirectFailure(t *testing.T) {
	o := Outcome{
		ReservationID: "res2",
		Method:        MethodKhalti,
		ErrorCode:     CodePaymentDeclined,
		RawStatus:     "Pending",
	}

	u, err := url.Parse(o.RedirectURL("https://stay.example.com"))
	if err != nil {
		t.Fatalf("Expected valid URL: %v", err)
	}
	if u.Path != "/payment-failure" {
		t.Errorf("Expected /payment-failure path, got %s", u.Path)
	}
	q := u.Query()
	if q.Get("error") != "payment_declined" {
		t.Errorf("Expected error=payment_declined, got %q", q.Get("error"))
	}
	if q.Get("status") != "Pending" {
		t.Errorf("Expected raw gateway status to pass through, got %q", q.Get("status"))
	}
	if q.Get("gateway") != "khalti" {
		t.Errorf("Expected gateway=khalti, got %q", q.Get("gateway"))
	}
}

func TestOutcomeRedirectEscapesValues(t *testing.T) {
	o := Outcome{ReservationID: "res 3&x=1", Method: MethodEsewa, ErrorCode: CodeInvalidData}

	u, err := url.Parse(o.RedirectURL("https://stay.example.com"))
	if err != nil {
		t.Fatalf("Expected valid URL: %v", err)
	}
	if got := u.Query().Get("reservationId"); got != "res 3&x=1" {
		t.Errorf("Expected reservation id to round-trip through escaping, got %q", got)
	}
}
