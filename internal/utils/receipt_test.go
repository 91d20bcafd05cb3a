package utils

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestReceiptNumberFormat(t *testing.T) {
	re := regexp.MustCompile(`^(CON|PAY)-\d{8}-\d{3}-\d{6}$`)

	for _, typ := range []string{ReceiptConsultation, ReceiptPayment} {
		got := ReceiptNumber(typ, 7)
		if !re.MatchString(got) {
			t.Errorf("ReceiptNumber(%q, 7) = %q, want format TYPE-YYYYMMDD-NNN-NNNNNN", typ, got)
		}
		if !strings.HasPrefix(got, typ+"-") {
			t.Errorf("ReceiptNumber(%q, 7) = %q, wrong type prefix", typ, got)
		}
	}
}

func TestReceiptNumberDentistPadding(t *testing.T) {
	got := ReceiptNumber(ReceiptConsultation, 5)
	parts := strings.Split(got, "-")
	if len(parts) != 4 {
		t.Fatalf("ReceiptNumber produced %d segments, want 4: %q", len(parts), got)
	}
	if parts[2] != "005" {
		t.Errorf("dentist segment = %q, want 005", parts[2])
	}
	if parts[1] != time.Now().Format("20060102") {
		t.Errorf("date segment = %q, want today", parts[1])
	}

	wide := ReceiptNumber(ReceiptPayment, 1234)
	if strings.Split(wide, "-")[2] != "1234" {
		t.Errorf("dentist ids above 999 must not be truncated, got %q", wide)
	}
}
