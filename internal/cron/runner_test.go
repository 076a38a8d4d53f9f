package cronrunner

import (
	"context"
	"testing"
)

func TestRunner_Add(t *testing.T) {
	r := New(nil, context.Background())
	if _, err := r.Add("sync_schedules", "0 0 */6 * * *", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("err=%v", err)
	}
	if _, err := r.Add("dedup_indicators", "", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("err=%v", err)
	}
	if _, err := r.Add("bad", "not a spec", func(context.Context) error { return nil }); err == nil {
		t.Fatalf("invalid spec accepted")
	}
	if got := len(r.Entries()); got != 1 {
		t.Fatalf("entries=%d want=1", got)
	}
}
