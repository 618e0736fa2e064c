package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"pgbackup-go/internal/pgbackup"
)

func result(tier pgbackup.Tier, action pgbackup.Action, expired ...string) *pgbackup.Result {
	return &pgbackup.Result{
		Identity: pgbackup.Identity{Tier: tier},
		Action:   action,
		Expired:  expired,
	}
}

func TestRunMetrics_Observe(t *testing.T) {
	m := New()
	finished := time.Date(2016, 2, 17, 3, 0, 0, 0, time.UTC)

	m.Observe([]*pgbackup.Result{
		result(pgbackup.TierGlobals, pgbackup.ActionDump, "a"),
		result(pgbackup.TierDaily, pgbackup.ActionDump, "b", "c"),
		result(pgbackup.TierDaily, pgbackup.ActionDump),
		result(pgbackup.TierWeekly, pgbackup.ActionLink),
		result(pgbackup.TierMonthly, pgbackup.ActionNoop),
	}, finished, nil)

	if got := testutil.ToFloat64(m.lastRunTimestamp); got != float64(finished.Unix()) {
		t.Errorf("last_run_timestamp_seconds = %v, want %v", got, finished.Unix())
	}
	if got := testutil.ToFloat64(m.lastRunSuccess); got != 1 {
		t.Errorf("last_run_success = %v, want 1", got)
	}

	tests := []struct {
		tier   pgbackup.Tier
		action pgbackup.Action
		want   float64
	}{
		{pgbackup.TierGlobals, pgbackup.ActionDump, 1},
		{pgbackup.TierDaily, pgbackup.ActionDump, 2},
		{pgbackup.TierWeekly, pgbackup.ActionLink, 1},
		{pgbackup.TierMonthly, pgbackup.ActionNoop, 1},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(m.artifacts.WithLabelValues(string(tt.tier), string(tt.action)))
		if got != tt.want {
			t.Errorf("artifacts_total{tier=%s,action=%s} = %v, want %v", tt.tier, tt.action, got, tt.want)
		}
	}

	if got := testutil.ToFloat64(m.expired.WithLabelValues("daily")); got != 2 {
		t.Errorf("expired_total{tier=daily} = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(m.expired); got != 2 {
		t.Errorf("expired_total series = %d, want 2", got)
	}
}

func TestRunMetrics_ObserveFailure(t *testing.T) {
	m := New()
	m.Observe(nil, time.Now(), errors.New("pg_dump failed"))

	if got := testutil.ToFloat64(m.lastRunSuccess); got != 0 {
		t.Errorf("last_run_success = %v, want 0", got)
	}
	if got := testutil.CollectAndCount(m.artifacts); got != 0 {
		t.Errorf("artifacts_total series = %d, want 0", got)
	}
}

func TestRunMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.Observe([]*pgbackup.Result{result(pgbackup.TierDaily, pgbackup.ActionDump)}, time.Unix(1455678000, 0), nil)

	path := filepath.Join(t.TempDir(), "pgbackup.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading textfile: %v", err)
	}
	for _, want := range []string{
		"pgbackup_last_run_success 1",
		"pgbackup_last_run_timestamp_seconds 1.455678e+09",
		`pgbackup_artifacts_total{action="dump",tier="daily"} 1`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %q:\n%s", want, data)
		}
	}
}

func TestRunMetrics_WriteTextfileBadPath(t *testing.T) {
	m := New()
	if err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "pgbackup.prom")); err == nil {
		t.Error("WriteTextfile() into a missing directory should return error")
	}
}
