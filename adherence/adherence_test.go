package adherence

import (
	"errors"
	"testing"

	"git.0xdad.com/tblyler/ocutrack/db"
	"git.0xdad.com/tblyler/ocutrack/tasks"
	"github.com/rs/zerolog"
)

type memStore struct {
	days    map[string][]db.DailyTask
	skipped []string
	saveErr error
	saves   int
}

func newMemStore() *memStore {
	return &memStore{days: map[string][]db.DailyTask{}}
}

func (s *memStore) LoadAdherence() (map[string][]db.DailyTask, []string, error) {
	return s.days, s.skipped, nil
}

func (s *memStore) SaveDay(date string, checklist []db.DailyTask) error {
	if s.saveErr != nil {
		return s.saveErr
	}

	s.saves++
	s.days[date] = append([]db.DailyTask(nil), checklist...)

	return nil
}

func newTestState(store *memStore, policy Policy) *State {
	return New(store, tasks.NewEngine(zerolog.Nop()), policy, zerolog.Nop())
}

func scenarioCatalog() []db.Medication {
	return []db.Medication{{
		ID:        "m1",
		Name:      "BRIO",
		Kind:      db.KindDrops,
		Dosage:    "1 Drop",
		Frequency: 1,
		Times:     []string{"9:00 AM"},
		StartDate: "2025-01-01",
		EndDate:   "2025-01-05",
		Eye:       db.EyeRight,
	}}
}

func TestScenario_ToggleSurvivesRederive(t *testing.T) {
	store := newMemStore()
	s := newTestState(store, PolicyFreeze)

	if err := s.Ensure("2025-01-03", scenarioCatalog()); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	got := s.Get("2025-01-03")
	if len(got) != 1 || got[0].Time != "9:00 AM" || got[0].Completed {
		t.Fatalf("unexpected checklist: %+v", got)
	}

	task, err := s.Toggle("2025-01-03", 0)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !task.Completed {
		t.Fatal("expected task to be completed")
	}

	if err := s.Ensure("2025-01-03", scenarioCatalog()); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	if got := s.Get("2025-01-03"); !got[0].Completed {
		t.Error("re-deriving reset completion")
	}
	if !store.days["2025-01-03"][0].Completed {
		t.Error("completion not persisted")
	}
}

func TestSetIfAbsent_Idempotent(t *testing.T) {
	s := newTestState(newMemStore(), PolicyFreeze)

	first := []db.DailyTask{{ID: "a", Time: "7:00 AM"}}
	second := []db.DailyTask{{ID: "b", Time: "8:00 AM"}, {ID: "c", Time: "9:00 AM"}}

	installed, err := s.SetIfAbsent("2025-01-03", first)
	if err != nil || !installed {
		t.Fatalf("first SetIfAbsent = %v, %v", installed, err)
	}

	installed, err = s.SetIfAbsent("2025-01-03", second)
	if err != nil || installed {
		t.Fatalf("second SetIfAbsent = %v, %v", installed, err)
	}

	got := s.Get("2025-01-03")
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("checklist replaced: %+v", got)
	}
}

func TestSetIfAbsent_ReplacesEmpty(t *testing.T) {
	s := newTestState(newMemStore(), PolicyFreeze)

	if _, err := s.SetIfAbsent("2025-01-03", nil); err != nil {
		t.Fatalf("SetIfAbsent: %v", err)
	}

	installed, err := s.SetIfAbsent("2025-01-03", []db.DailyTask{{ID: "a"}})
	if err != nil || !installed {
		t.Fatalf("SetIfAbsent over empty = %v, %v", installed, err)
	}
}

func TestToggle_RoundTrip(t *testing.T) {
	s := newTestState(newMemStore(), PolicyFreeze)
	if _, err := s.SetIfAbsent("2025-01-03", []db.DailyTask{{ID: "a"}, {ID: "b", Completed: true}}); err != nil {
		t.Fatalf("SetIfAbsent: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := s.Toggle("2025-01-03", 1); err != nil {
			t.Fatalf("Toggle: %v", err)
		}
	}

	got := s.Get("2025-01-03")
	if got[0].Completed || !got[1].Completed {
		t.Errorf("toggle twice changed state: %+v", got)
	}
}

func TestToggle_OutOfRange(t *testing.T) {
	store := newMemStore()
	s := newTestState(store, PolicyFreeze)
	if _, err := s.SetIfAbsent("2025-01-03", []db.DailyTask{{ID: "a"}}); err != nil {
		t.Fatalf("SetIfAbsent: %v", err)
	}
	saves := store.saves

	for _, idx := range []int{-1, 1, 5} {
		if _, err := s.Toggle("2025-01-03", idx); !errors.Is(err, ErrTaskNotFound) {
			t.Errorf("Toggle(%d) err = %v, want ErrTaskNotFound", idx, err)
		}
	}

	if _, err := s.Toggle("2025-01-04", 0); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Toggle on missing date err = %v", err)
	}

	if store.saves != saves {
		t.Error("failed toggle should not persist")
	}
}

func TestToggleByID(t *testing.T) {
	s := newTestState(newMemStore(), PolicyFreeze)
	if _, err := s.SetIfAbsent("2025-01-03", []db.DailyTask{{ID: "a"}, {ID: "b"}}); err != nil {
		t.Fatalf("SetIfAbsent: %v", err)
	}

	task, err := s.ToggleByID("2025-01-03", "b")
	if err != nil || !task.Completed || task.ID != "b" {
		t.Fatalf("ToggleByID = %+v, %v", task, err)
	}

	if _, err := s.ToggleByID("2025-01-03", "zzz"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestToggle_SaveFailureLeavesState(t *testing.T) {
	store := newMemStore()
	s := newTestState(store, PolicyFreeze)
	if _, err := s.SetIfAbsent("2025-01-03", []db.DailyTask{{ID: "a"}}); err != nil {
		t.Fatalf("SetIfAbsent: %v", err)
	}

	store.saveErr = errors.New("disk full")
	if _, err := s.Toggle("2025-01-03", 0); err == nil {
		t.Fatal("expected error")
	}

	if s.Get("2025-01-03")[0].Completed {
		t.Error("memory changed after failed save")
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	s := newTestState(newMemStore(), PolicyFreeze)
	if _, err := s.SetIfAbsent("2025-01-03", []db.DailyTask{{ID: "a"}}); err != nil {
		t.Fatalf("SetIfAbsent: %v", err)
	}

	got := s.Get("2025-01-03")
	got[0].Completed = true

	if s.Get("2025-01-03")[0].Completed {
		t.Error("state mutated through Get")
	}
	if got := s.Get("1999-01-01"); got == nil || len(got) != 0 {
		t.Errorf("missing date = %#v, want empty", got)
	}
}

func TestEnsure_FreezeIgnoresCatalogChange(t *testing.T) {
	s := newTestState(newMemStore(), PolicyFreeze)
	catalog := scenarioCatalog()

	if err := s.Ensure("2025-01-03", catalog); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	catalog = append(catalog, db.Medication{
		ID: "m2", Name: "LACOMA-T", Kind: db.KindDrops, Times: []string{"7:00 AM"},
		StartDate: "2025-01-01", EndDate: "2025-01-05",
	})

	if err := s.Ensure("2025-01-03", catalog); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	if got := s.Get("2025-01-03"); len(got) != 1 {
		t.Errorf("frozen checklist changed: %+v", got)
	}
}

func TestEnsure_MergeCarriesCompletion(t *testing.T) {
	s := newTestState(newMemStore(), PolicyMerge)
	catalog := scenarioCatalog()

	if err := s.Ensure("2025-01-03", catalog); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if _, err := s.Toggle("2025-01-03", 0); err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	catalog = append(catalog, db.Medication{
		ID: "m2", Name: "LACOMA-T", Kind: db.KindDrops, Times: []string{"7:00 AM"},
		StartDate: "2025-01-01", EndDate: "2025-01-05",
	})

	if err := s.Ensure("2025-01-03", catalog); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	got := s.Get("2025-01-03")
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].MedicationID != "m2" || got[0].Completed {
		t.Errorf("new task wrong: %+v", got[0])
	}
	if got[1].MedicationID != "m1" || !got[1].Completed {
		t.Errorf("existing completion lost: %+v", got[1])
	}
}

func TestEnsure_MergeNoChangeSkipsSave(t *testing.T) {
	store := newMemStore()
	s := newTestState(store, PolicyMerge)

	if err := s.Ensure("2025-01-03", scenarioCatalog()); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	saves := store.saves

	if err := s.Ensure("2025-01-03", scenarioCatalog()); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if store.saves != saves {
		t.Error("unchanged merge should not persist")
	}
}

func TestLoadSnapshotRestore(t *testing.T) {
	store := newMemStore()
	store.days["2025-01-02"] = []db.DailyTask{{ID: "x", Completed: true}}
	store.skipped = []string{"adherence:broken"}

	s := newTestState(store, PolicyFreeze)
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	snap := s.Snapshot()
	if len(snap) != 1 || !snap["2025-01-02"][0].Completed {
		t.Fatalf("snapshot = %+v", snap)
	}

	other := newTestState(newMemStore(), PolicyFreeze)
	other.Restore(snap)
	if got := other.Get("2025-01-02"); len(got) != 1 || got[0].ID != "x" {
		t.Errorf("restore lost data: %+v", got)
	}

	if dates := other.Dates(); len(dates) != 1 || dates[0] != "2025-01-02" {
		t.Errorf("Dates = %v", dates)
	}
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]Policy{"": PolicyFreeze, "freeze": PolicyFreeze, " MERGE ": PolicyMerge} {
		got, err := ParsePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParsePolicy(%q) = %q, %v", in, got, err)
		}
	}

	if _, err := ParsePolicy("rebuild"); !errors.Is(err, ErrUnknownPolicy) {
		t.Errorf("err = %v, want ErrUnknownPolicy", err)
	}
}
