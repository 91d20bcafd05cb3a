package utils

import (
	"fmt"
	"time"
)

// Receipt type prefixes: CON for consultations, PAY for payments.
const (
	ReceiptConsultation = "CON"
	ReceiptPayment      = "PAY"
)

// ReceiptNumber builds a receipt identifier of the form
// <TYPE>-<YYYYMMDD>-<dentist id padded to 3 digits>-<last 6 digits
// of the current unix-milli timestamp>. The timestamp tail keeps
// numbers unique enough within one practice and one day.
func ReceiptNumber(typ string, dentistID uint64) string {
	now := time.Now()
	ms := fmt.Sprintf("%d", now.UnixMilli())
	tail := ms[len(ms)-6:]
	return fmt.Sprintf("%s-%s-%03d-%s", typ, now.Format("20060102"), dentistID, tail)
}
