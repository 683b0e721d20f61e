package db

import (
	"errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger"
)

func newTestBadger(t *testing.T) *Badger {
	t.Helper()

	b, err := NewBadger(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open badger: %v", err)
	}

	t.Cleanup(func() {
		if err := b.Close(); err != nil {
			t.Errorf("failed to close badger: %v", err)
		}
	})

	return b
}

func put(t *testing.T, b *Badger, key, value []byte) {
	t.Helper()

	err := b.db.Update(func(tx *badger.Txn) error {
		return tx.Set(key, value)
	})
	if err != nil {
		t.Fatalf("failed to put %s: %v", key, err)
	}
}

func TestMedicationsRoundTrip(t *testing.T) {
	b := newTestBadger(t)

	meds, err := b.LoadMedications()
	if err != nil {
		t.Fatalf("unexpected error on empty db: %v", err)
	}
	if meds != nil {
		t.Fatalf("expected nil medications, got %v", meds)
	}

	want := []Medication{
		{ID: "b", Name: "BRIO", Kind: KindDrops, Times: []string{"8:00 AM"}, StartDate: "2025-01-01", EndDate: "2025-02-01", Eye: EyeRight},
		{ID: "a", Name: "PANORITE 40", Kind: KindTablet, Times: []string{"9:00 AM"}, StartDate: "2025-01-01", EndDate: "2025-01-03"},
	}
	if err := b.SaveMedications(want); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	got, err := b.LoadMedications()
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("insertion order not preserved: %+v", got)
	}
	if got[0].Eye != EyeRight || got[0].Times[0] != "8:00 AM" {
		t.Errorf("fields not preserved: %+v", got[0])
	}
}

func TestLoadMedications_Malformed(t *testing.T) {
	b := newTestBadger(t)
	put(t, b, []byte(medicationsKey), []byte("{not json"))

	_, err := b.LoadMedications()
	if !errors.Is(err, ErrMalformedSnapshot) {
		t.Fatalf("err = %v, want ErrMalformedSnapshot", err)
	}
}

func TestAdherenceRoundTrip(t *testing.T) {
	b := newTestBadger(t)

	tasks := []DailyTask{
		{ID: "t1", MedicationID: "m1", Name: "DEXA", Kind: KindDrops, Time: "7:00 AM", Completed: true},
		{ID: "t2", MedicationID: "m1", Name: "DEXA", Kind: KindDrops, Time: "7:00 PM"},
	}
	if err := b.SaveDay("2025-01-03", tasks); err != nil {
		t.Fatalf("failed to save day: %v", err)
	}
	if err := b.SaveDay("2025-01-04", nil); err != nil {
		t.Fatalf("failed to save day: %v", err)
	}
	put(t, b, badgerKeyForDate("2025-01-05"), []byte("garbage"))

	days, skipped, err := b.LoadAdherence()
	if err != nil {
		t.Fatalf("failed to load adherence: %v", err)
	}

	if len(skipped) != 1 || skipped[0] != "adherence:2025-01-05" {
		t.Errorf("skipped = %v", skipped)
	}

	got := days["2025-01-03"]
	if len(got) != 2 || !got[0].Completed || got[1].Completed || got[1].ID != "t2" {
		t.Errorf("unexpected tasks: %+v", got)
	}

	if _, ok := days["2025-01-04"]; !ok {
		t.Error("expected empty day to be present")
	}
}

func TestPermission(t *testing.T) {
	b := newTestBadger(t)

	p, err := b.Permission()
	if err != nil || p != "" {
		t.Fatalf("Permission() = %q, %v; want empty", p, err)
	}

	if err := b.SetPermission("granted"); err != nil {
		t.Fatalf("SetPermission: %v", err)
	}

	p, err = b.Permission()
	if err != nil || p != "granted" {
		t.Fatalf("Permission() = %q, %v; want granted", p, err)
	}
}

func TestNotices(t *testing.T) {
	b := newTestBadger(t)

	seen, err := b.NoticeSeen("course-end:m1:2025-01-05")
	if err != nil || seen {
		t.Fatalf("NoticeSeen = %v, %v; want false", seen, err)
	}

	if err := b.MarkNotice("course-end:m1:2025-01-05", time.Hour); err != nil {
		t.Fatalf("MarkNotice: %v", err)
	}

	seen, err = b.NoticeSeen("course-end:m1:2025-01-05")
	if err != nil || !seen {
		t.Fatalf("NoticeSeen = %v, %v; want true", seen, err)
	}

	seen, _ = b.NoticeSeen("course-end:m2:2025-01-05")
	if seen {
		t.Error("unrelated notice reported as seen")
	}
}

func TestMedicationActiveOn(t *testing.T) {
	m := &Medication{StartDate: "2025-01-03", EndDate: "2025-01-03"}

	for date, want := range map[string]bool{
		"2025-01-02": false,
		"2025-01-03": true,
		"2025-01-04": false,
	} {
		if got := m.ActiveOn(date); got != want {
			t.Errorf("ActiveOn(%s) = %v, want %v", date, got, want)
		}
	}
}
