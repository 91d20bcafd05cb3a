package model

import (
	"encoding/json"
	"testing"
)

// The snapshot keys are a storage contract: restore dispatches on
// original_table and expects the matching entity key to be set.
func TestSnapshotKeysMatchSourceTables(t *testing.T) {
	patientSnap, err := json.Marshal(Snapshot{Patient: &Patient{ID: 1}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(patientSnap, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := m["patient"]; !ok {
		t.Error("patient snapshot missing 'patient' key")
	}
	if _, ok := m["consultation"]; ok {
		t.Error("patient snapshot must omit the consultation key")
	}

	conSnap, err := json.Marshal(Snapshot{
		Consultation: &Consultation{ID: 2},
		Payments:     []Payment{{ID: 3}},
		Appointments: []Appointment{{ID: 4}},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	m = nil
	if err := json.Unmarshal(conSnap, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"consultation", "payments", "appointments"} {
		if _, ok := m[key]; !ok {
			t.Errorf("consultation snapshot missing %q key", key)
		}
	}
}

func TestSnapshotRoundTripPreservesIDs(t *testing.T) {
	orig := Snapshot{
		Consultation: &Consultation{ID: 11, PatientID: 5, DentistID: 2, ReceiptNumber: "CON-20260830-002-123456"},
		Payments:     []Payment{{ID: 21, ConsultationID: 11, AmountPaid: 80}},
		Appointments: []Appointment{{ID: 31, ConsultationID: ptr(uint64(11)), Status: AppointmentConfirmed}},
	}
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Snapshot
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Consultation == nil || back.Consultation.ID != 11 {
		t.Fatal("consultation id lost in round trip")
	}
	if len(back.Payments) != 1 || back.Payments[0].ID != 21 {
		t.Error("payment id lost in round trip")
	}
	if len(back.Appointments) != 1 || back.Appointments[0].ID != 31 {
		t.Error("appointment id lost in round trip")
	}
	if back.Appointments[0].ConsultationID == nil || *back.Appointments[0].ConsultationID != 11 {
		t.Error("appointment consultation link lost in round trip")
	}
}

func ptr[T any](v T) *T { return &v }
