package services

import (
	"errors"
	"testing"

	"github.com/Morris-wambua/fabs-store-sub000/internal/models"
)

func TestStatusForFilterMapsDashboardNamesToStoredStatuses(t *testing.T) {
	cases := []struct {
		filter string
		status string
	}{
		{"PENDING_APPROVAL", models.ReservationPendingApproval},
		{"UPCOMING", models.ReservationAccepted},
		// The dashboard tab says IN_PROGRESS but rows are stored as
		// ACTIVE_SERVICE. Both names are load-bearing.
		{"IN_PROGRESS", models.ReservationActiveService},
		{"COMPLETED", models.ReservationServed},
		{"CANCELLED", models.ReservationCancelled},
		{"LAPSED_PAID", models.ReservationLapsedPaid},
		{"LAPSED_NOT_ACCEPTED", models.ReservationLapsedNotAccepted},
		{"in_progress", models.ReservationActiveService},
		{"  upcoming  ", models.ReservationAccepted},
	}

	for _, tc := range cases {
		status, err := StatusForFilter(tc.filter)
		if err != nil {
			t.Fatalf("StatusForFilter(%q): %v", tc.filter, err)
		}
		if status != tc.status {
			t.Fatalf("StatusForFilter(%q) = %q, want %q", tc.filter, status, tc.status)
		}
	}
}

func TestStatusForFilterEmptySelectsEverything(t *testing.T) {
	status, err := StatusForFilter("")
	if err != nil {
		t.Fatalf("StatusForFilter(\"\"): %v", err)
	}
	if status != "" {
		t.Fatalf("empty filter mapped to %q, want empty status", status)
	}
}

func TestStatusForFilterRejectsUnknownNames(t *testing.T) {
	for _, filter := range []string{"ACTIVE_SERVICE", "IN PROGRESS", "DONE", "pending"} {
		if _, err := StatusForFilter(filter); !errors.Is(err, ErrInvalidFilter) {
			t.Fatalf("StatusForFilter(%q) err = %v, want ErrInvalidFilter", filter, err)
		}
	}
}

func TestNormalizeActionPerRole(t *testing.T) {
	cases := []struct {
		role   string
		action string
		status string
	}{
		{"owner", "approve", models.ReservationAccepted},
		{"owner", "reject", models.ReservationCancelled},
		{"owner", "start", models.ReservationActiveService},
		{"owner", "complete", models.ReservationServed},
		{"owner", " Approve ", models.ReservationAccepted},
		{"customer", "cancel", models.ReservationCancelled},
	}

	for _, tc := range cases {
		status, err := normalizeAction(tc.role, tc.action)
		if err != nil {
			t.Fatalf("normalizeAction(%q, %q): %v", tc.role, tc.action, err)
		}
		if status != tc.status {
			t.Fatalf("normalizeAction(%q, %q) = %q, want %q", tc.role, tc.action, status, tc.status)
		}
	}
}

func TestNormalizeActionRejectsCrossRoleActions(t *testing.T) {
	cases := []struct {
		role   string
		action string
	}{
		{"customer", "approve"},
		{"customer", "start"},
		{"customer", "complete"},
		{"owner", "cancel"},
		{"owner", "lapse"},
		{"", "approve"},
	}

	for _, tc := range cases {
		if _, err := normalizeAction(tc.role, tc.action); !errors.Is(err, ErrInvalidAction) {
			t.Fatalf("normalizeAction(%q, %q) err = %v, want ErrInvalidAction", tc.role, tc.action, err)
		}
	}
}

func TestValidateTransitionAllowsOnlyForwardEdges(t *testing.T) {
	allowed := []struct {
		from string
		to   string
	}{
		{models.ReservationPendingApproval, models.ReservationAccepted},
		{models.ReservationAccepted, models.ReservationActiveService},
		{models.ReservationActiveService, models.ReservationServed},
		{models.ReservationPendingApproval, models.ReservationCancelled},
		{models.ReservationAccepted, models.ReservationCancelled},
	}
	for _, tc := range allowed {
		if err := validateTransition(tc.from, tc.to); err != nil {
			t.Fatalf("validateTransition(%q -> %q): %v", tc.from, tc.to, err)
		}
	}

	rejected := []struct {
		from string
		to   string
	}{
		{models.ReservationServed, models.ReservationActiveService},
		{models.ReservationCancelled, models.ReservationAccepted},
		{models.ReservationPendingApproval, models.ReservationActiveService},
		{models.ReservationAccepted, models.ReservationServed},
		{models.ReservationLapsedPaid, models.ReservationActiveService},
		{models.ReservationActiveService, models.ReservationCancelled},
	}
	for _, tc := range rejected {
		if err := validateTransition(tc.from, tc.to); !errors.Is(err, ErrInvalidStateTransition) {
			t.Fatalf("validateTransition(%q -> %q) err = %v, want ErrInvalidStateTransition", tc.from, tc.to, err)
		}
	}
}
