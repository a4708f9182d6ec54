//go:build integration

package risk

import (
	"context"
	"testing"
	"time"

	"github.com/reliefnet/aidledger/internal/testutil"
)

func TestPostgresRiskStore_RecordAndListBySender(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	first := &Assessment{
		ID:          "risk_pg001",
		Sender:      "ben-001",
		Recipient:   "vendor-food-1",
		Category:    "food",
		Amount:      "25.000000000000000000",
		Level:       LevelHigh,
		TotalScore:  43,
		Findings: []Finding{
			{
				Pattern:     PatternLimitViolation,
				Severity:    SeverityCritical,
				Score:       25,
				Description: "daily limit exceeded",
				Detail: &LimitDetail{
					DailyLimit: "50.000000000000000000",
					SpentToday: "40.000000000000000000",
					Overflow:   "15.000000000000000000",
				},
			},
			{
				Pattern:  PatternUnusualAmount,
				Severity: SeverityMedium,
				Score:    18,
				Detail:   &AmountDetail{Ratio: 9, Baseline: "10.000000000000000000", BaselineKind: "personal"},
			},
		},
		RequiresReview: true,
		EvaluatedAt:    now.Add(-time.Hour),
	}
	second := &Assessment{
		ID:          "risk_pg002",
		Sender:      "ben-001",
		Recipient:   "vendor-food-1",
		Category:    "food",
		Amount:      "5.000000000000000000",
		Level:       LevelMinimal,
		Findings:    []Finding{},
		EvaluatedAt: now,
	}
	for _, a := range []*Assessment{first, second} {
		if err := store.Record(ctx, a); err != nil {
			t.Fatalf("record %s: %v", a.ID, err)
		}
	}

	got, err := store.ListBySender(ctx, "ben-001", 10)
	if err != nil {
		t.Fatalf("list by sender: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 assessments, got %d", len(got))
	}
	if got[0].ID != "risk_pg002" {
		t.Errorf("expected newest first, got %s", got[0].ID)
	}

	// Findings survive the JSONB round trip with typed details.
	stored := got[1]
	if !stored.RequiresReview || stored.Level != LevelHigh {
		t.Errorf("lost assessment fields: %+v", stored)
	}
	if len(stored.Findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(stored.Findings))
	}
	detail, ok := stored.Findings[0].Detail.(*LimitDetail)
	if !ok {
		t.Fatalf("expected *LimitDetail, got %T", stored.Findings[0].Detail)
	}
	if detail.Overflow != "15.000000000000000000" {
		t.Errorf("unexpected overflow: %s", detail.Overflow)
	}

	got, err = store.ListBySender(ctx, "ben-001", 1)
	if err != nil {
		t.Fatalf("list with limit: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected limit applied, got %d", len(got))
	}
}

func TestPostgresRiskStore_ListSince(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	old := &Assessment{
		ID: "risk_pgold", Sender: "ben-001", Recipient: "vendor-1", Category: "food",
		Amount: "5.000000000000000000", Level: LevelMedium, Findings: []Finding{},
		EvaluatedAt: now.AddDate(0, 0, -40),
	}
	recent := &Assessment{
		ID: "risk_pgnew", Sender: "ben-002", Recipient: "vendor-1", Category: "medical",
		Amount: "8.000000000000000000", Level: LevelLow, Findings: []Finding{},
		EvaluatedAt: now.Add(-time.Hour),
	}
	for _, a := range []*Assessment{old, recent} {
		if err := store.Record(ctx, a); err != nil {
			t.Fatalf("record %s: %v", a.ID, err)
		}
	}

	got, err := store.ListSince(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(got) != 1 || got[0].ID != "risk_pgnew" {
		t.Fatalf("expected only the recent assessment, got %d", len(got))
	}
}
