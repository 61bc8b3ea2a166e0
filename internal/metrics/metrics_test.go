package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDecision(t *testing.T) {
	before := testutil.ToFloat64(NotificationDecisions.WithLabelValues("add_follow", OutcomeJoined))
	RecordDecision("add_follow", OutcomeJoined)
	RecordDecision("add_follow", OutcomeJoined)

	if got := testutil.ToFloat64(NotificationDecisions.WithLabelValues("add_follow", OutcomeJoined)) - before; got != 2 {
		t.Errorf("expected 2 decisions, got %v", got)
	}
}

func TestRecordMalformed(t *testing.T) {
	before := testutil.ToFloat64(MalformedNotifications.WithLabelValues("mongo"))
	RecordMalformed("mongo")

	if got := testutil.ToFloat64(MalformedNotifications.WithLabelValues("mongo")) - before; got != 1 {
		t.Errorf("expected 1 malformed record, got %v", got)
	}
}
