package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestMemoryJobLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	job := Job{ID: "a1", Status: "Pending", CreatedAt: time.Now(), Problem: json.RawMessage(`{}`)}
	if err := m.CreateJob(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := m.GetJob(ctx, "a1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != "Pending" {
		t.Fatalf("status = %q, want Pending", got.Status)
	}

	if err := m.UpdateJobStatus(ctx, "a1", "Running"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := m.SaveSolution(ctx, "a1", json.RawMessage(`{"routes":[]}`)); err != nil {
		t.Fatalf("save solution: %v", err)
	}
	got, _ = m.GetJob(ctx, "a1")
	if got.Status != "Running" || len(got.Solution) == 0 {
		t.Fatalf("unexpected job after updates: %+v", got)
	}

	if _, err := m.GetJob(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("get missing = %v, want ErrNotFound", err)
	}
	if err := m.DeleteJob(ctx, "a1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.GetJob(ctx, "a1"); err != ErrNotFound {
		t.Fatalf("get deleted = %v, want ErrNotFound", err)
	}
}

func TestMemoryListJobsNewestFirst(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		if err := m.CreateJob(ctx, Job{ID: id, Status: "Pending", CreatedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	items, total, err := m.ListJobs(ctx, 1, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 5 {
		t.Fatalf("total = %d, want 5", total)
	}
	if len(items) != 2 || items[0].ID != "e" || items[1].ID != "d" {
		t.Fatalf("page 1 = %+v, want newest first", items)
	}
	items, _, _ = m.ListJobs(ctx, 3, 2)
	if len(items) != 1 || items[0].ID != "a" {
		t.Fatalf("page 3 = %+v, want [a]", items)
	}
	items, _, _ = m.ListJobs(ctx, 9, 2)
	if len(items) != 0 {
		t.Fatalf("page past end = %+v, want empty", items)
	}
}
