// Package repository implements data access against MySQL with
// hand-written parameterized SQL. Sentinel errors defined here let
// handlers map failure scenarios onto HTTP statuses without
// inspecting driver error strings themselves: ErrForbidden and
// sql.ErrNoRows both surface as 404, ErrNotAssigned as 403, and
// ErrConflict and its specializations as 400/409.
package repository

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource outside their resolved practice scope.
var ErrForbidden = errors.New("forbidden")

// ErrNotAssigned is returned when an assistant without an
// assignment row tries to resolve a practice scope.
var ErrNotAssigned = errors.New("assistant is not assigned to any dentist")

// ErrConflict is returned when an operation cannot proceed because
// of conflicting state, such as restoring a snapshot over a row
// that belongs to another practice.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when registering with an email that
// is already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrPhoneExists is returned when a patient with the same phone
// number already exists (non-archived) in the practice.
var ErrPhoneExists = errors.New("patient with this phone number already exists")

// ErrSlotTaken is returned when a non-cancelled appointment
// already occupies the requested (dentist, date, time) slot.
var ErrSlotTaken = errors.New("time slot is already booked")

// ErrBalanceExceeded is returned when a payment is larger than the
// consultation's remaining balance.
var ErrBalanceExceeded = errors.New("payment amount exceeds remaining balance")

// ErrCorruptArchive is returned when an archive row's data_json
// cannot be deserialized.
var ErrCorruptArchive = errors.New("invalid archive data format")

// isDuplicateKey reports whether err is a MySQL duplicate-entry
// violation (error 1062). The unique indexes behind it are the
// authoritative guard for email, assignment and slot uniqueness;
// the read-before-write checks only exist for friendlier messages.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
