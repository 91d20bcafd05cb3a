package repository

import (
	"errors"
	"testing"
)

func TestPaymentStatus(t *testing.T) {
	cases := []struct {
		amountPaid float64
		remaining  float64
		want       string
	}{
		{500, 0, "Paid"},
		{600, -100, "Paid"},
		{0, 500, "Pending"},
		{200, 300, "Partial"},
	}
	for _, tc := range cases {
		if got := paymentStatus(tc.amountPaid, tc.remaining); got != tc.want {
			t.Errorf("paymentStatus(%v, %v) = %q, want %q", tc.amountPaid, tc.remaining, got, tc.want)
		}
	}
}

func TestIsDuplicateKey(t *testing.T) {
	if !isDuplicateKey(errors.New("Error 1062 (23000): Duplicate entry 'a@b.c' for key 'users.email'")) {
		t.Error("mysql duplicate-entry error not recognized")
	}
	if isDuplicateKey(errors.New("Error 1452 (23000): foreign key constraint fails")) {
		t.Error("foreign key error misclassified as duplicate")
	}
	if isDuplicateKey(nil) {
		t.Error("nil error misclassified as duplicate")
	}
}
