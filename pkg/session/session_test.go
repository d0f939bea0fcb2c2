package session

import(
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/wowshot/pkg/enhance"
)

func TestHappyPathWithStrength(t *testing.T) {
	s := New("u1")
	s.SelectMode("wow", true)
	assert.Equal(t, ModeSelected, s.State)

	require.NoError(t, s.SelectStrength(enhance.High))
	assert.Equal(t, AwaitingImage, s.State)
	assert.Equal(t, enhance.High, s.Strength)

	gen, err := s.StartProcessing()
	require.NoError(t, err)
	assert.Equal(t, Processing, s.State)

	require.NoError(t, s.Finish(gen, nil))
	assert.Equal(t, Idle, s.State)
	assert.Equal(t, "", s.Mode)
}

func TestModeWithoutStrengthSkipsAhead(t *testing.T) {
	s := New("u1")
	s.SelectMode("golden", false)
	assert.Equal(t, AwaitingImage, s.State)

	err := s.SelectStrength(enhance.Low)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestFailureGoesBackToAwaitingImage(t *testing.T) {
	s := New("u1")
	s.SelectMode("nature", false)
	gen, err := s.StartProcessing()
	require.NoError(t, err)

	require.NoError(t, s.Finish(gen, errors.New("decode")))
	assert.Equal(t, AwaitingImage, s.State)
	assert.Equal(t, "nature", s.Mode, "the mode sticks for the retry")

	_, err = s.StartProcessing()
	assert.NoError(t, err)
}

func TestIllegalTransitions(t *testing.T) {
	s := New("u1")
	_, err := s.StartProcessing()
	assert.ErrorIs(t, err, ErrIllegalTransition, "no mode chosen")

	assert.ErrorIs(t, s.SelectStrength(enhance.Low), ErrIllegalTransition)

	s.SelectMode("wow", true)
	_, err = s.StartProcessing()
	assert.ErrorIs(t, err, ErrIllegalTransition, "strength not chosen")
}

func TestStaleResultsAreRejected(t *testing.T) {
	s := New("u1")
	s.SelectMode("golden", false)
	gen, err := s.StartProcessing()
	require.NoError(t, err)

	// User changes their mind mid-flight
	s.SelectMode("dreamy", false)
	assert.ErrorIs(t, s.Finish(gen, nil), ErrStale)
	assert.Equal(t, AwaitingImage, s.State)
	assert.Equal(t, "dreamy", s.Mode)

	gen, _ = s.StartProcessing()
	s.Cancel()
	assert.ErrorIs(t, s.Finish(gen, nil), ErrStale)
	assert.Equal(t, Idle, s.State)
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "AwaitingImage", AwaitingImage.String())
	assert.Equal(t, "State(42)", State(42).String())
}

func TestStore(t *testing.T) {
	st := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Update("u1", func(s *Session) error { s.SelectMode("wow", true); return nil })
		}()
	}
	wg.Wait()

	v := st.View("u1")
	assert.Equal(t, uint64(50), v.Generation)
	assert.Equal(t, ModeSelected, v.State)

	v.State = Done
	assert.Equal(t, ModeSelected, st.View("u1").State, "views are copies")

	err := st.Update("u1", func(s *Session) error { _, err := s.StartProcessing(); return err })
	assert.ErrorIs(t, err, ErrIllegalTransition)

	st.View("u2")
	assert.Equal(t, 2, st.Len())
	assert.Equal(t, 1, st.Prune(time.Now().Add(time.Minute)), "only the idle one goes")
	assert.Equal(t, 1, st.Len())
}
