package session

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestManager(t *testing.T, roundCodes map[int]string) *Manager {
	t.Helper()
	base := testConfig()
	base.TrialDuration = 5 * time.Millisecond
	return NewManager(zap.NewNop(), bigCatalog(), base, roundCodes)
}

func TestStartSessionPracticeShortensPattern(t *testing.T) {
	m := newTestManager(t, nil)
	sess, err := m.StartSession("p001", 1024, 768, true)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	defer m.Remove(sess.ID)

	if !sess.Practice {
		t.Error("session not marked as practice")
	}
	if sess.Config.Rounds != 1 || sess.Config.TrialsPerRound != 2 {
		t.Errorf("practice config = %d rounds x %d trials, want 1 x 2", sess.Config.Rounds, sess.Config.TrialsPerRound)
	}

	got, err := m.Get(sess.ID)
	if err != nil || got != sess {
		t.Errorf("Get(%s) = %v, %v", sess.ID, got, err)
	}

	// A practice run is a single ungated round; it should finish on its own.
	select {
	case <-sess.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("practice session did not complete")
	}
	if sess.Store.TrialCount() != 2 {
		t.Errorf("practice trials = %d, want 2", sess.Store.TrialCount())
	}
}

func TestProceedRoundVerifiesAccessCode(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("sesame"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	m := newTestManager(t, map[int]string{2: string(hash)})

	sess, err := m.StartSession("p002", 1024, 768, false)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Remove(sess.ID)

	// The code is checked before the gate state, so a wrong code is rejected
	// even while round 1 is still running.
	if err := m.ProceedRound(sess.ID, "wrong"); !errors.Is(err, ErrBadAccessCode) {
		t.Errorf("wrong code: got %v, want ErrBadAccessCode", err)
	}

	waitState(t, sess.Scheduler, StateRoundComplete)
	if err := m.ProceedRound(sess.ID, "wrong"); !errors.Is(err, ErrBadAccessCode) {
		t.Errorf("wrong code at gate: got %v, want ErrBadAccessCode", err)
	}
	if sess.Scheduler.Status().State != StateRoundComplete {
		t.Error("wrong code advanced the round")
	}

	if err := m.ProceedRound(sess.ID, "sesame"); err != nil {
		t.Errorf("correct code rejected: %v", err)
	}
	waitState(t, sess.Scheduler, StateRoundRunning)
}

func TestProceedRoundUnknownSession(t *testing.T) {
	m := newTestManager(t, nil)
	if err := m.ProceedRound("nope", ""); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("got %v, want ErrSessionNotFound", err)
	}
}

func TestCancelAndRemove(t *testing.T) {
	m := newTestManager(t, nil)
	sess, err := m.StartSession("p003", 1024, 768, false)
	if err != nil {
		t.Fatal(err)
	}

	if err := m.Cancel(sess.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	select {
	case <-sess.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("cancel did not stop the scheduler")
	}

	m.Remove(sess.ID)
	if _, err := m.Get(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("session still registered after Remove: %v", err)
	}
}

func TestExpireIdleKeepsRecordedData(t *testing.T) {
	m := newTestManager(t, nil)
	sess, err := m.StartSession("p004", 1024, 768, false)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Remove(sess.ID)

	deadline := time.Now().Add(5 * time.Second)
	for sess.Store.TrialCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	recorded := sess.Store.TrialCount()
	if recorded == 0 {
		t.Fatal("no trial recorded before expiry")
	}

	// With a zero idle budget any running session counts as abandoned.
	if expired := m.ExpireIdle(0); expired != 1 {
		t.Errorf("expired = %d, want 1", expired)
	}
	select {
	case <-sess.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("expiry did not cancel the scheduler")
	}

	// Expiry cancels but never discards: the session stays registered and
	// everything recorded before the cut stays exportable.
	got, err := m.Get(sess.ID)
	if err != nil {
		t.Fatalf("expired session dropped from the registry: %v", err)
	}
	if got.Store.TrialCount() < recorded {
		t.Errorf("recorded trials shrank after expiry: %d -> %d", recorded, got.Store.TrialCount())
	}
	if expired := m.ExpireIdle(0); expired != 0 {
		t.Errorf("second sweep expired %d sessions, want 0", expired)
	}
}
