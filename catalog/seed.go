package catalog

import (
	"git.0xdad.com/tblyler/ocutrack/db"
)

// SeedCatalog is a sample prescription: a six phase DEXA taper, an AUROFLOX course
// and the standing drops and tablets prescribed alongside them.
func SeedCatalog() []db.Medication {
	drops := func(id, name string, times []string, start, end string, eye db.Eye, notes string) db.Medication {
		return db.Medication{
			ID:        id,
			Name:      name,
			Kind:      db.KindDrops,
			Dosage:    "1 Drop",
			Frequency: len(times),
			Times:     times,
			StartDate: start,
			EndDate:   end,
			Eye:       eye,
			Notes:     notes,
		}
	}

	return []db.Medication{
		drops("dexa-p1", "DEXA (Days 1–7)", []string{"7:00 AM", "10:00 AM", "1:00 PM", "3:00 PM", "5:00 PM", "7:00 PM"}, "2025-12-21", "2025-12-27", db.EyeRight, "Phase 1: 6 times per day."),
		drops("dexa-p2", "DEXA (Days 8–14)", []string{"7:00 AM", "10:00 AM", "1:00 PM", "7:00 PM"}, "2025-12-28", "2026-01-03", db.EyeRight, "Phase 2: 4 times per day."),
		drops("dexa-p3", "DEXA (Days 15–21)", []string{"7:00 AM", "1:00 PM", "7:00 PM"}, "2026-01-04", "2026-01-10", db.EyeRight, "Phase 3: 3 times per day."),
		drops("dexa-p4", "DEXA (Days 22–28)", []string{"7:00 AM", "7:00 PM"}, "2026-01-11", "2026-01-17", db.EyeRight, "Phase 4: 2 times per day."),
		drops("dexa-p5", "DEXA (Days 29–35)", []string{"7:00 AM"}, "2026-01-18", "2026-01-24", db.EyeRight, "Phase 5: 1 time per day."),
		drops("dexa-p6", "DEXA (Days 36–42)", []string{"7:00 AM"}, "2026-01-25", "2026-01-31", db.EyeRight, "Phase 6: 1 time per day. Final course."),
		drops("auro-d1", "AUROFLOX (Day 1)", []string{"12:00 PM", "4:00 PM", "8:00 PM"}, "2025-12-21", "2025-12-21", db.EyeRight, "Day 1: 8 AM dose omitted."),
		drops("auro-main", "AUROFLOX", []string{"8:00 AM", "12:00 PM", "4:00 PM", "8:00 PM"}, "2025-12-22", "2026-01-09", db.EyeRight, "Standard course: Days 2 to 20."),
		drops("brio", "BRIO", []string{"8:00 AM", "2:00 PM", "8:00 PM"}, "2025-12-21", "2026-12-31", db.EyeRight, ""),
		drops("lacoma-t", "LACOMA-T", []string{"9:00 PM"}, "2025-12-21", "2026-12-31", db.EyeLeft, ""),
		{
			ID:        "iopar-sr",
			Name:      "IOPAR-SR Capsule",
			Kind:      db.KindTablet,
			Dosage:    "1 Capsule",
			Frequency: 1,
			Times:     []string{"9:00 AM"},
			StartDate: "2025-12-21",
			EndDate:   "2025-12-23",
		},
		{
			ID:        "panorite-40",
			Name:      "PANORITE 40",
			Kind:      db.KindTablet,
			Dosage:    "1 Tablet",
			Frequency: 1,
			Times:     []string{"8:00 AM"},
			StartDate: "2025-12-21",
			EndDate:   "2025-12-23",
			Notes:     "Take before breakfast.",
		},
	}
}
