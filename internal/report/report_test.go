package report_test

import (
	"errors"
	"frameshot/internal/report"
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/google/go-cmp/cmp"
)

func TestReporter(t *testing.T) {
	var lines []string
	logger := funcr.New(func(prefix, args string) {
		lines = append(lines, prefix+" "+args)
	}, funcr.Options{})

	r := report.New(logger).WithName("gallery")
	r.Info("checking items", "count", 3)
	r.Warning("deleting items", "count", 1)
	r.Success("done")
	r.Error(errors.New("boom"), "delete failed")

	want := []string{
		`gallery "level"=0 "msg"="checking items" "count"=3`,
		`gallery "level"=0 "msg"="deleting items" "severity"="warning" "count"=1`,
		`gallery "level"=0 "msg"="done" "severity"="success"`,
		`gallery "msg"="delete failed" "error"="boom"`,
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestDiscard(t *testing.T) {
	r := report.Discard()
	r.Info("ignored")
	r.Warning("ignored")
	r.Success("ignored")
	r.Error(errors.New("ignored"), "ignored")
	r.WithName("child").Info("ignored")
}
