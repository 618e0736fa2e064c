package app

import (
	"errors"
	"testing"

	"pgbackup-go/internal/database"
	"pgbackup-go/internal/pgbackup"
)

func TestNewRunOperation(t *testing.T) {
	today := pgbackup.Date{Year: 2016, Month: 2, Day: 17}
	op := NewRunOperation("run-1", today)

	if op.UUID != "run-1" {
		t.Errorf("UUID = %q, want %q", op.UUID, "run-1")
	}
	if op.Today != today {
		t.Errorf("Today = %v, want %v", op.Today, today)
	}
	if op.Status != database.StatusRunning {
		t.Errorf("Status = %q, want %q", op.Status, database.StatusRunning)
	}
	if op.ID != 0 {
		t.Errorf("ID = %d, want 0", op.ID)
	}
}

func TestRunOperation_Persisted(t *testing.T) {
	tests := []struct {
		name string
		id   int64
		want bool
	}{
		{name: "not persisted when ID is 0", id: 0, want: false},
		{name: "persisted when ID is positive", id: 1, want: true},
		{name: "persisted when ID is large", id: 99999, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := &RunOperation{ID: tt.id}
			if got := op.Persisted(); got != tt.want {
				t.Errorf("Persisted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunOperation_Finish(t *testing.T) {
	op := NewRunOperation("run-1", pgbackup.Date{Year: 2016, Month: 1, Day: 1})
	op.Finish(nil)
	if op.Status != database.StatusSuccess {
		t.Errorf("Status = %q, want %q", op.Status, database.StatusSuccess)
	}
	op.Finish(errors.New("boom"))
	if op.Status != database.StatusError {
		t.Errorf("Status = %q, want %q", op.Status, database.StatusError)
	}
}
