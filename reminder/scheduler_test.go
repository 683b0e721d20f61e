package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"git.0xdad.com/tblyler/ocutrack/db"
	"github.com/rs/zerolog"
)

// -------------------------
// Fakes
// -------------------------

type fakeCatalog struct {
	medications []db.Medication
}

func (c *fakeCatalog) List() []db.Medication { return c.medications }

func (c *fakeCatalog) ActiveOn(date string) []db.Medication {
	var out []db.Medication
	for _, m := range c.medications {
		if m.ActiveOn(date) {
			out = append(out, m)
		}
	}
	return out
}

type fakeChecklist struct {
	mu      sync.Mutex
	days    map[string][]db.DailyTask
	ensured []string
	err     error
}

func (c *fakeChecklist) Get(date string) []db.DailyTask {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]db.DailyTask(nil), c.days[date]...)
}

func (c *fakeChecklist) Ensure(date string, _ []db.Medication) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.ensured = append(c.ensured, date)
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []Alert
	err    error
}

func (n *fakeNotifier) Notify(_ context.Context, alert Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.alerts = append(n.alerts, alert)
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.alerts)
}

type fakeNotices struct {
	seen map[string]bool
}

func (n *fakeNotices) NoticeSeen(key string) (bool, error) { return n.seen[key], nil }

func (n *fakeNotices) MarkNotice(key string, _ time.Duration) error {
	n.seen[key] = true
	return nil
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) set(hour, minute, second int) {
	c.t = time.Date(c.t.Year(), c.t.Month(), c.t.Day(), hour, minute, second, 0, time.UTC)
}

func newTestScheduler(cat *fakeCatalog, list *fakeChecklist, notifier *fakeNotifier, notices NoticeLog, fc *fakeClock) *Scheduler {
	s := New(cat, list, notifier, notices, Options{Location: time.UTC}, zerolog.Nop())
	s.now = func() time.Time { return fc.t }
	s.SetPermission(PermissionGranted)
	return s
}

func dueTask(id, at string) db.DailyTask {
	return db.DailyTask{ID: id + at, MedicationID: id, Name: "BRIO", Kind: db.KindDrops, Dosage: "1 Drop", Time: at, Eye: db.EyeRight}
}

// -------------------------
// Tests
// -------------------------

func TestTick_FiresOncePerDose(t *testing.T) {
	list := &fakeChecklist{days: map[string][]db.DailyTask{
		"2025-01-03": {dueTask("m1", "7:00 AM")},
	}}
	notifier := &fakeNotifier{}
	fc := &fakeClock{t: time.Date(2025, 1, 3, 6, 59, 0, 0, time.UTC)}
	s := newTestScheduler(&fakeCatalog{}, list, notifier, nil, fc)

	ctx := context.Background()
	for _, tick := range [][3]int{{6, 59, 0}, {7, 0, 0}, {7, 0, 30}, {7, 1, 0}} {
		fc.set(tick[0], tick[1], tick[2])
		s.Tick(ctx)
	}

	if notifier.count() != 1 {
		t.Fatalf("alerts = %d, want 1", notifier.count())
	}

	alert := notifier.alerts[0]
	if alert.Title != "Time for BRIO" || alert.Body != "Please take your 1 Drop (Right Eye)." || alert.Kind != AlertDose {
		t.Errorf("unexpected alert: %+v", alert)
	}
}

func TestTick_SkipsCompletedAndOtherTimes(t *testing.T) {
	done := dueTask("m1", "7:00 AM")
	done.Completed = true

	list := &fakeChecklist{days: map[string][]db.DailyTask{
		"2025-01-03": {done, dueTask("m2", "7:01 AM")},
	}}
	notifier := &fakeNotifier{}
	fc := &fakeClock{t: time.Date(2025, 1, 3, 7, 0, 0, 0, time.UTC)}
	s := newTestScheduler(&fakeCatalog{}, list, notifier, nil, fc)

	s.Tick(context.Background())

	if notifier.count() != 0 {
		t.Fatalf("alerts = %d, want 0", notifier.count())
	}
}

func TestTick_SharedTimeFiresForEachMedication(t *testing.T) {
	list := &fakeChecklist{days: map[string][]db.DailyTask{
		"2025-01-03": {dueTask("m1", "7:00 AM"), dueTask("m2", "7:00 AM")},
	}}
	notifier := &fakeNotifier{}
	fc := &fakeClock{t: time.Date(2025, 1, 3, 7, 0, 0, 0, time.UTC)}
	s := newTestScheduler(&fakeCatalog{}, list, notifier, nil, fc)

	s.Tick(context.Background())
	s.Tick(context.Background())

	if notifier.count() != 2 {
		t.Fatalf("alerts = %d, want 2", notifier.count())
	}
}

func TestTick_RequiresPermission(t *testing.T) {
	list := &fakeChecklist{days: map[string][]db.DailyTask{
		"2025-01-03": {dueTask("m1", "7:00 AM")},
	}}
	notifier := &fakeNotifier{}
	fc := &fakeClock{t: time.Date(2025, 1, 3, 7, 0, 0, 0, time.UTC)}
	s := newTestScheduler(&fakeCatalog{}, list, notifier, nil, fc)

	for _, p := range []Permission{PermissionDefault, PermissionDenied} {
		s.SetPermission(p)
		s.Tick(context.Background())
	}
	if notifier.count() != 0 {
		t.Fatalf("alerts = %d without permission", notifier.count())
	}

	s.SetPermission(PermissionGranted)
	s.Tick(context.Background())
	if notifier.count() != 1 {
		t.Fatalf("alerts = %d after grant, want 1", notifier.count())
	}
}

func TestTick_FailedDeliveryRetriesWithinMinute(t *testing.T) {
	list := &fakeChecklist{days: map[string][]db.DailyTask{
		"2025-01-03": {dueTask("m1", "7:00 AM")},
	}}
	notifier := &fakeNotifier{err: errors.New("offline")}
	fc := &fakeClock{t: time.Date(2025, 1, 3, 7, 0, 0, 0, time.UTC)}
	s := newTestScheduler(&fakeCatalog{}, list, notifier, nil, fc)

	s.Tick(context.Background())

	notifier.err = nil
	fc.set(7, 0, 5)
	s.Tick(context.Background())
	fc.set(7, 0, 6)
	s.Tick(context.Background())

	if notifier.count() != 1 {
		t.Fatalf("alerts = %d, want 1", notifier.count())
	}
}

func TestTick_MissedWindowIsLost(t *testing.T) {
	list := &fakeChecklist{days: map[string][]db.DailyTask{
		"2025-01-03": {dueTask("m1", "7:00 AM")},
	}}
	notifier := &fakeNotifier{}
	fc := &fakeClock{t: time.Date(2025, 1, 3, 6, 59, 59, 0, time.UTC)}
	s := newTestScheduler(&fakeCatalog{}, list, notifier, nil, fc)

	s.Tick(context.Background())
	fc.set(7, 1, 0)
	s.Tick(context.Background())

	if notifier.count() != 0 {
		t.Fatalf("alerts = %d, want 0", notifier.count())
	}
}

func TestTick_RolloverEnsuresEachDateOnce(t *testing.T) {
	list := &fakeChecklist{days: map[string][]db.DailyTask{}}
	fc := &fakeClock{t: time.Date(2025, 1, 3, 23, 59, 0, 0, time.UTC)}
	s := newTestScheduler(&fakeCatalog{}, list, &fakeNotifier{}, nil, fc)

	s.Tick(context.Background())
	s.Tick(context.Background())
	fc.t = time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC)
	s.Tick(context.Background())

	if len(list.ensured) != 2 || list.ensured[0] != "2025-01-03" || list.ensured[1] != "2025-01-04" {
		t.Fatalf("ensured = %v", list.ensured)
	}
}

func TestTick_RolloverRetriesAfterFailure(t *testing.T) {
	list := &fakeChecklist{days: map[string][]db.DailyTask{}, err: errors.New("disk")}
	fc := &fakeClock{t: time.Date(2025, 1, 3, 8, 0, 0, 0, time.UTC)}
	s := newTestScheduler(&fakeCatalog{}, list, &fakeNotifier{}, nil, fc)

	s.Tick(context.Background())
	list.err = nil
	s.Tick(context.Background())

	if len(list.ensured) != 1 {
		t.Fatalf("ensured = %v", list.ensured)
	}
}

func TestCheckEndingSoon(t *testing.T) {
	cat := &fakeCatalog{medications: []db.Medication{
		{ID: "ending", Name: "AUROFLOX", StartDate: "2025-01-01", EndDate: "2025-01-04"},
		{ID: "later", Name: "BRIO", StartDate: "2025-01-01", EndDate: "2025-12-31"},
		{ID: "today", Name: "IOPAR", StartDate: "2025-01-01", EndDate: "2025-01-03"},
	}}
	notifier := &fakeNotifier{}
	notices := &fakeNotices{seen: map[string]bool{}}
	fc := &fakeClock{t: time.Date(2025, 1, 3, 9, 0, 0, 0, time.UTC)}
	s := newTestScheduler(cat, &fakeChecklist{}, notifier, notices, fc)

	s.CheckEndingSoon(context.Background())
	s.CheckEndingSoon(context.Background())

	if notifier.count() != 1 {
		t.Fatalf("alerts = %d, want 1", notifier.count())
	}

	alert := notifier.alerts[0]
	if alert.Kind != AlertCourseEnd || alert.Title != "OcuTrack Reminder" || alert.MedicationID != "ending" ||
		alert.Body != "AUROFLOX course ends tomorrow (2025-01-04). Please check your prescription." {
		t.Errorf("unexpected alert: %+v", alert)
	}

	// a new process sharing the notice log stays quiet
	restarted := newTestScheduler(cat, &fakeChecklist{}, notifier, notices, fc)
	restarted.CheckEndingSoon(context.Background())
	if notifier.count() != 1 {
		t.Fatalf("alerts after restart = %d, want 1", notifier.count())
	}
}

func TestCheckEndingSoon_WithoutNoticeLog(t *testing.T) {
	cat := &fakeCatalog{medications: []db.Medication{
		{ID: "ending", Name: "AUROFLOX", StartDate: "2025-01-01", EndDate: "2025-01-04"},
	}}
	notifier := &fakeNotifier{}
	fc := &fakeClock{t: time.Date(2025, 1, 3, 9, 0, 0, 0, time.UTC)}
	s := newTestScheduler(cat, &fakeChecklist{}, notifier, nil, fc)

	s.SetPermission(PermissionDenied)
	s.CheckEndingSoon(context.Background())
	if notifier.count() != 0 {
		t.Fatal("course ending alert sent without permission")
	}

	s.SetPermission(PermissionGranted)
	s.CheckEndingSoon(context.Background())
	s.CheckEndingSoon(context.Background())
	if notifier.count() != 1 {
		t.Fatalf("alerts = %d, want 1", notifier.count())
	}
}

func TestTick_RolloverRunsLookahead(t *testing.T) {
	cat := &fakeCatalog{medications: []db.Medication{
		{ID: "ending", Name: "AUROFLOX", StartDate: "2025-01-01", EndDate: "2025-01-04"},
	}}
	notifier := &fakeNotifier{}
	fc := &fakeClock{t: time.Date(2025, 1, 3, 0, 0, 1, 0, time.UTC)}
	s := newTestScheduler(cat, &fakeChecklist{}, notifier, nil, fc)

	s.Tick(context.Background())

	if notifier.count() != 1 || notifier.alerts[0].Kind != AlertCourseEnd {
		t.Fatalf("alerts = %+v", notifier.alerts)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	list := &fakeChecklist{days: map[string][]db.DailyTask{}}
	s := New(&fakeCatalog{}, list, &fakeNotifier{}, nil, Options{
		TickInterval:  10 * time.Millisecond,
		LookaheadSpec: "0 9 * * *",
		Location:      time.UTC,
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestRun_BadLookaheadSpec(t *testing.T) {
	s := New(&fakeCatalog{}, &fakeChecklist{}, &fakeNotifier{}, nil, Options{LookaheadSpec: "every day"}, zerolog.Nop())
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestDoseAlert_Tablet(t *testing.T) {
	alert := DoseAlert(db.DailyTask{MedicationID: "p", Name: "PANORITE 40", Kind: db.KindTablet, Dosage: "1 Tablet", Time: "8:00 AM"})
	if alert.Body != "Please take your 1 Tablet (Tablet)." {
		t.Errorf("body = %q", alert.Body)
	}
}
