package session

import(
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/abworrall/wowshot/pkg/enhance"
)

type State int

const(
	Idle State = iota
	ModeSelected
	StrengthSelected
	AwaitingImage
	Processing
	Done
)

var stateNames = []string{"Idle", "ModeSelected", "StrengthSelected", "AwaitingImage", "Processing", "Done"}

func (s State)String() string {
	if int(s) >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var(
	ErrIllegalTransition = errors.New("illegal session transition")

	// ErrStale is a result for a generation that has since moved on; the
	// user cancelled, or picked something else, while we were working.
	ErrStale = errors.New("stale result")
)

// A Session is one user's position in the conversation. Every transition
// bumps Generation; work started at one generation may only complete the
// session if nothing has happened since.
type Session struct {
	ID          string
	State       State
	Mode        string
	HasStrength bool
	Strength    enhance.StrengthLevel
	Generation  uint64
	Updated     time.Time
}

func New(id string) *Session {
	return &Session{ID: id, State: Idle, Updated: time.Now()}
}

func (s *Session)String() string {
	return fmt.Sprintf("Session[%s %s mode=%q strength=%s gen=%d]", s.ID, s.State, s.Mode, s.Strength, s.Generation)
}

func (s *Session)moveTo(to State) {
	log.Debug().Str("session", s.ID).Stringer("from", s.State).Stringer("to", to).Msg("transition")
	s.State = to
	s.Generation++
	s.Updated = time.Now()
}

func (s *Session)illegal(event string) error {
	return fmt.Errorf("%s in state %s: %w", event, s.State, ErrIllegalTransition)
}

// SelectMode is allowed from anywhere; picking a mode abandons whatever
// was going on. A mode without a strength knob goes straight on to
// waiting for the image.
func (s *Session)SelectMode(mode string, hasStrength bool) {
	s.Mode, s.HasStrength, s.Strength = mode, hasStrength, enhance.StrengthDefault
	s.moveTo(ModeSelected)
	if !hasStrength {
		s.moveTo(AwaitingImage)
	}
}

func (s *Session)SelectStrength(sl enhance.StrengthLevel) error {
	if s.State != ModeSelected || !s.HasStrength {
		return s.illegal("select strength")
	}
	s.Strength = sl
	s.moveTo(StrengthSelected)
	s.moveTo(AwaitingImage)
	return nil
}

// StartProcessing claims the session for a piece of work, and returns the
// generation the result must present when it's done.
func (s *Session)StartProcessing() (uint64, error) {
	if s.State != AwaitingImage {
		return 0, s.illegal("image")
	}
	s.moveTo(Processing)
	return s.Generation, nil
}

// Finish records the outcome of the work started at `gen`. Success goes
// through Done back to Idle; failure goes back to waiting for an image, so
// the user can try another photo.
func (s *Session)Finish(gen uint64, err error) error {
	if s.State != Processing || s.Generation != gen {
		return fmt.Errorf("generation %d, session now %s at %d: %w", gen, s.State, s.Generation, ErrStale)
	}
	if err != nil {
		s.moveTo(AwaitingImage)
		return nil
	}
	s.moveTo(Done)
	s.moveTo(Idle)
	s.Mode, s.HasStrength, s.Strength = "", false, enhance.StrengthDefault
	return nil
}

// Cancel drops everything and goes back to Idle. Any work in flight
// becomes stale.
func (s *Session)Cancel() {
	s.Mode, s.HasStrength, s.Strength = "", false, enhance.StrengthDefault
	s.moveTo(Idle)
}
