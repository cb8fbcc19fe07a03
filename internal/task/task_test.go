package task

import (
	"testing"

	xerrors "taskmanager/internal/errors"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		in      string
		want    Status
		invalid bool
	}{
		{in: "NotStarted", want: StatusNotStarted},
		{in: "InProgress", want: StatusInProgress},
		{in: " Done ", invalid: true},
		{in: "Done", want: StatusDone},
		{in: "done", invalid: true},
		{in: "Other", invalid: true},
		{in: "", invalid: true},
	}
	for _, tc := range cases {
		got, err := ParseStatus(tc.in)
		if tc.invalid {
			if !IsValidation(err) {
				t.Fatalf("%q: expected validation error, got %v", tc.in, err)
			}
			e, _ := xerrors.From(err)
			if e.Metadata()["status"] == "" && tc.in != "" {
				t.Fatalf("%q: rejected value missing from metadata", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%q: got %q, %v", tc.in, got, err)
		}
	}
}

func TestTableNames(t *testing.T) {
	if TableLive.String() != "tasks" || TableTest.String() != "tasks_test" {
		t.Fatalf("unexpected table names %s / %s", TableLive, TableTest)
	}
	if Table(42).String() != "Table(42)" {
		t.Fatalf("unknown tables should not resolve to a name")
	}
	if len(Statuses()) != 3 {
		t.Fatalf("expected three statuses")
	}
}
