package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/velvetlabs/livepoll/pkg/internal/realtime"

	"github.com/samber/lo"
	"github.com/spf13/viper"
)

type recordingConn struct {
	mu     sync.Mutex
	frames [][]byte
}

func (v *recordingConn) WriteMessage(messageType int, data []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	v.frames = append(v.frames, buf)
	return nil
}

func (v *recordingConn) Close() error { return nil }

func (v *recordingConn) frameCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.frames)
}

func (v *recordingConn) lastFrame() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.frames) == 0 {
		return nil
	}
	return v.frames[len(v.frames)-1]
}

func TestCastVoteByLabel(t *testing.T) {
	setupTestEnv(t)

	user := mustSignup(t, "alice")
	poll := mustCreatePoll(t, "Color?", "Red", "Blue")

	updated, err := CastVote(user.ID, poll.ID, SelectOptionByLabel("Blue"), false)
	if err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if updated.Options[0].Votes != 0 || updated.Options[1].Votes != 1 {
		t.Errorf("counts = [%d %d], want [0 1]", updated.Options[0].Votes, updated.Options[1].Votes)
	}

	account, err := GetAccount(user.ID)
	if err != nil {
		t.Fatalf("unable to reload account: %v", err)
	}
	if !lo.Contains([]uint(account.VotedPolls), poll.ID) {
		t.Error("voted poll id missing from account voted list")
	}
	if account.PollsVoted != 1 {
		t.Errorf("polls voted = %d, want 1", account.PollsVoted)
	}
}

func TestCastVoteTwiceRejected(t *testing.T) {
	setupTestEnv(t)

	user := mustSignup(t, "alice")
	poll := mustCreatePoll(t, "Color?", "Red", "Blue")

	if _, err := CastVote(user.ID, poll.ID, SelectOptionByLabel("Blue"), false); err != nil {
		t.Fatalf("first vote failed: %v", err)
	}
	if _, err := CastVote(user.ID, poll.ID, SelectOptionByLabel("Blue"), false); !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("second vote error = %v, want ErrAlreadyVoted", err)
	}

	persisted := reloadPoll(t, poll.ID)
	if persisted.Options[0].Votes != 0 || persisted.Options[1].Votes != 1 {
		t.Errorf("counts after rejection = [%d %d], want [0 1]", persisted.Options[0].Votes, persisted.Options[1].Votes)
	}
}

func TestCastVoteByIndex(t *testing.T) {
	setupTestEnv(t)

	user := mustSignup(t, "bob")
	poll := mustCreatePoll(t, "Color?", "Red", "Blue")

	updated, err := CastVote(user.ID, poll.ID, SelectOptionByIndex(0), false)
	if err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if updated.Options[0].Votes != 1 || updated.Options[1].Votes != 0 {
		t.Errorf("counts = [%d %d], want [1 0]", updated.Options[0].Votes, updated.Options[1].Votes)
	}
}

func TestCastVoteUnknownSelectorIsNoop(t *testing.T) {
	setupTestEnv(t)

	user := mustSignup(t, "alice")
	poll := mustCreatePoll(t, "Color?", "Red", "Blue")

	viewer := &recordingConn{}
	connection := realtime.Default().Register(viewer)
	defer realtime.Default().Unregister(connection)

	selectors := []OptionSelector{
		SelectOptionByLabel("Green"),
		SelectOptionByIndex(-1),
		SelectOptionByIndex(2),
	}
	for _, selector := range selectors {
		if _, err := CastVote(user.ID, poll.ID, selector, false); err != nil {
			t.Fatalf("no-op vote returned error: %v", err)
		}
	}

	persisted := reloadPoll(t, poll.ID)
	if persisted.Options[0].Votes != 0 || persisted.Options[1].Votes != 0 {
		t.Errorf("counts after no-ops = [%d %d], want [0 0]", persisted.Options[0].Votes, persisted.Options[1].Votes)
	}
	if viewer.frameCount() != 0 {
		t.Errorf("no-op vote emitted %d broadcasts, want 0", viewer.frameCount())
	}

	account, _ := GetAccount(user.ID)
	if account.PollsVoted != 0 {
		t.Errorf("no-op vote bumped polls voted to %d", account.PollsVoted)
	}
}

func TestCastVoteRejections(t *testing.T) {
	setupTestEnv(t)

	user := mustSignup(t, "alice")
	poll := mustCreatePoll(t, "Color?", "Red")

	if _, err := CastVote(user.ID, 9999, SelectOptionByIndex(0), false); !errors.Is(err, ErrPollNotFound) {
		t.Errorf("missing poll error = %v, want ErrPollNotFound", err)
	}
	if _, err := CastVote(9999, poll.ID, SelectOptionByIndex(0), false); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("missing user error = %v, want ErrUserNotFound", err)
	}
}

func TestCastVoteTrustedSkipsChecks(t *testing.T) {
	setupTestEnv(t)

	poll := mustCreatePoll(t, "Color?", "Red", "Blue")

	// No account at all, twice on the same poll; the trusted path does
	// not enforce once-per-user.
	for i := 0; i < 2; i++ {
		if _, err := CastVote(0, poll.ID, SelectOptionByIndex(1), true); err != nil {
			t.Fatalf("trusted vote %d failed: %v", i+1, err)
		}
	}

	persisted := reloadPoll(t, poll.ID)
	if persisted.Options[1].Votes != 2 {
		t.Errorf("trusted votes = %d, want 2", persisted.Options[1].Votes)
	}
}

func TestCastVoteBroadcastsUpdatedPoll(t *testing.T) {
	setupTestEnv(t)

	user := mustSignup(t, "alice")
	poll := mustCreatePoll(t, "Color?", "Red", "Blue")

	viewer := &recordingConn{}
	connection := realtime.Default().Register(viewer)
	defer realtime.Default().Unregister(connection)

	if _, err := CastVote(user.ID, poll.ID, SelectOptionByLabel("Red"), false); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if viewer.frameCount() != 1 {
		t.Errorf("vote emitted %d broadcasts, want 1", viewer.frameCount())
	}
}

// stalledConn blocks every send until released, standing in for a
// viewer socket wedged on TCP backpressure.
type stalledConn struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (v *stalledConn) WriteMessage(messageType int, data []byte) error {
	v.once.Do(func() { close(v.entered) })
	<-v.release
	return nil
}

func (v *stalledConn) Close() error { return nil }

func TestStalledViewerDoesNotBlockStrictVoting(t *testing.T) {
	setupTestEnv(t)
	viper.Set("voting.strict", true)

	alice := mustSignup(t, "alice")
	bob := mustSignup(t, "bob")
	poll := mustCreatePoll(t, "Color?", "Red", "Blue")

	viewer := &stalledConn{entered: make(chan struct{}), release: make(chan struct{})}
	connection := realtime.Default().Register(viewer)
	defer realtime.Default().Unregister(connection)

	var releaseOnce sync.Once
	release := func() { releaseOnce.Do(func() { close(viewer.release) }) }
	defer release()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := CastVote(alice.ID, poll.ID, SelectOptionByLabel("Red"), false); err != nil {
			t.Errorf("first vote failed: %v", err)
		}
	}()
	<-viewer.entered // the first vote is now wedged in fan-out

	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := CastVote(bob.ID, poll.ID, SelectOptionByLabel("Red"), false); err != nil {
			t.Errorf("second vote failed: %v", err)
		}
	}()

	// The second vote must land in the store even while the viewer is
	// wedged; only its broadcast waits.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if persisted := reloadPoll(t, poll.ID); persisted.Options[0].Votes == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("second vote did not persist while a viewer send was stalled")
		}
		time.Sleep(10 * time.Millisecond)
	}

	release()
	wg.Wait()
}

func TestConcurrentVotesStrictMode(t *testing.T) {
	setupTestEnv(t)
	viper.Set("voting.strict", true)

	alice := mustSignup(t, "alice")
	bob := mustSignup(t, "bob")
	poll := mustCreatePoll(t, "Color?", "Red", "Blue")

	var wg sync.WaitGroup
	for _, id := range []uint{alice.ID, bob.ID} {
		wg.Add(1)
		go func(accountID uint) {
			defer wg.Done()
			if _, err := CastVote(accountID, poll.ID, SelectOptionByLabel("Red"), false); err != nil {
				t.Errorf("concurrent vote failed: %v", err)
			}
		}(id)
	}
	wg.Wait()

	persisted := reloadPoll(t, poll.ID)
	if persisted.Options[0].Votes != 2 {
		t.Errorf("strict mode lost an update: count = %d, want 2", persisted.Options[0].Votes)
	}
}
