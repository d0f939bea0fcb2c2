package service

import(
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/abworrall/wowshot/pkg/enhance"
	"github.com/abworrall/wowshot/pkg/remote"
	"github.com/abworrall/wowshot/pkg/session"
)

// What the user sees when things go wrong. Never anything more specific.
const(
	MsgTryAnotherPhoto  = "Sorry, I couldn't read that photo. Please try another one."
	MsgProcessingFailed = "Sorry, processing failed. Please try again."
	MsgChooseModeFirst  = "Choose a mode first."
	MsgUnknownMode      = "I don't know that mode."
)

var ErrUnknownRecipe = errors.New("unknown recipe")

// Attachments fetches the bytes of an image the user sent.
type Attachments interface {
	Download(ctx context.Context, ref string) ([]byte, error)
}

// Remote runs a chain of hosted model steps.
type Remote interface {
	Enhance(ctx context.Context, img []byte, steps []remote.Step) ([]byte, error)
}

// Sender talks back to the user.
type Sender interface {
	SendResult(ctx context.Context, sessionID string, img []byte) error
	SendError(ctx context.Context, sessionID string, msg string) error
}

// A Service drives sessions from mode choice to delivered photo. The
// enhancement engine itself is stateless; all per-user state lives in the
// session store.
type Service struct {
	Config

	Attachments Attachments
	Remote      Remote        // nil means no remote recipes
	Sender      Sender

	Sessions    *session.Store
	Stats       *Stats
	recipes     map[string]Recipe
	pool        *semaphore.Weighted
}

func New(cfg Config, att Attachments, rem Remote, snd Sender) *Service {
	return &Service{
		Config:      cfg,
		Attachments: att,
		Remote:      rem,
		Sender:      snd,
		Sessions:    session.NewStore(),
		Stats:       NewStats(),
		recipes:     BuildRecipes(rem != nil, cfg.Upscale),
		pool:        newPool(cfg.Workers),
	}
}

// newPool bounds how many pipelines run at once; they are CPU bound, or
// hold a remote GPU.
func newPool(workers int) *semaphore.Weighted {
	return semaphore.NewWeighted(int64(workers))
}

func (s *Service)Recipe(id string) (Recipe, error) {
	if r, exists := s.recipes[id]; exists {
		return r, nil
	}
	// Let the engine's aliases work too
	if p, err := enhance.LookupPreset(enhance.PresetID(id)); err == nil {
		return s.recipes[string(p.ID)], nil
	}
	return Recipe{}, fmt.Errorf("recipe '%s': %w", id, ErrUnknownRecipe)
}

func (s *Service)RecipeIDs() []string { return sortedRecipeIDs(s.recipes) }

func (s *Service)ChooseMode(ctx context.Context, sessionID, mode string) error {
	r, err := s.Recipe(mode)
	if err != nil {
		s.tell(ctx, sessionID, MsgUnknownMode)
		return err
	}
	return s.Sessions.Update(sessionID, func(ss *session.Session) error {
		ss.SelectMode(r.ID, r.HasStrength)
		return nil
	})
}

func (s *Service)ChooseStrength(ctx context.Context, sessionID string, sl enhance.StrengthLevel) error {
	return s.Sessions.Update(sessionID, func(ss *session.Session) error {
		return ss.SelectStrength(sl)
	})
}

func (s *Service)Cancel(sessionID string) {
	err := s.Sessions.Update(sessionID, func(ss *session.Session) error { ss.Cancel(); return nil })
	if err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("cancel failed")
	}
}

// tell sends the user an error message. If that fails too, there is no one
// left to tell but the log.
func (s *Service)tell(ctx context.Context, sessionID, msg string) {
	if err := s.Sender.SendError(ctx, sessionID, msg); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Str("msg", msg).Msg("couldn't send error message")
	}
}

type outcome struct {
	res enhance.Result
	err error
}

// HandleImage is the user sending a photo. It runs the session's recipe
// under the request timeout, and delivers the result, unless the session
// moved on while we were busy; then the result is dropped.
func (s *Service)HandleImage(ctx context.Context, sessionID, ref string) error {
	var gen uint64
	var snap session.Session
	err := s.Sessions.Update(sessionID, func(ss *session.Session) error {
		var err error
		gen, err = ss.StartProcessing()
		snap = *ss
		return err
	})
	if err != nil {
		s.tell(ctx, sessionID, MsgChooseModeFirst)
		return err
	}

	r, err := s.Recipe(snap.Mode)
	if err != nil {
		return s.finish(ctx, snap, gen, err, nil)
	}

	rctx, cancel := context.WithTimeout(ctx, s.RequestTimeout)
	defer cancel()

	start := time.Now()
	res, err := s.run(rctx, r, snap.Strength, ref)
	s.Stats.Record(r.ID, time.Since(start), err)

	return s.finish(ctx, snap, gen, err, res.Bytes)
}

// run downloads and processes on the worker pool. If ctx expires first we
// stop waiting; the pipeline's result lands in a buffered channel nobody
// reads, and is garbage collected.
func (s *Service)run(ctx context.Context, r Recipe, sl enhance.StrengthLevel, ref string) (enhance.Result, error) {
	img, err := s.Attachments.Download(ctx, ref)
	if err != nil {
		return enhance.Result{}, fmt.Errorf("download: %w", err)
	}

	if err := s.pool.Acquire(ctx, 1); err != nil {
		return enhance.Result{}, fmt.Errorf("waiting for a worker: %w", err)
	}

	done := make(chan outcome, 1)
	go func() {
		defer s.pool.Release(1)
		res, err := s.Process(ctx, r, sl, img)
		done <- outcome{res, err}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		return enhance.Result{}, fmt.Errorf("recipe %s: %w", r.ID, ctx.Err())
	}
}

func (s *Service)finish(ctx context.Context, snap session.Session, gen uint64, err error, img []byte) error {
	ferr := s.Sessions.Update(snap.ID, func(ss *session.Session) error { return ss.Finish(gen, err) })
	if errors.Is(ferr, session.ErrStale) {
		log.Info().Str("session", snap.ID).Uint64("gen", gen).Msg("session moved on, dropping result")
		return ferr
	}

	if err != nil {
		log.Error().Err(err).Str("session", snap.ID).Str("mode", snap.Mode).Msg("processing failed")
		s.tell(ctx, snap.ID, UserMessage(err))
		return err
	}

	if s.ArchiveDir != "" {
		fname := filepath.Join(s.ArchiveDir, fmt.Sprintf("%s-%s-%d.jpg", snap.ID, snap.Mode, gen))
		if aerr := enhance.WriteFileAtomic(fname, img); aerr != nil {
			log.Warn().Err(aerr).Str("file", fname).Msg("archive failed")
		}
	}

	return s.Sender.SendResult(ctx, snap.ID, img)
}

// UserMessage is the only thing about an error the user gets to see.
func UserMessage(err error) string {
	if enhance.IsInputError(err) {
		return MsgTryAnotherPhoto
	}
	return MsgProcessingFailed
}

// Process runs a recipe over image bytes: remote steps, the local preset,
// more remote steps, and a final budget check. Callable without a session.
func (s *Service)Process(ctx context.Context, r Recipe, sl enhance.StrengthLevel, img []byte) (enhance.Result, error) {
	if r.IsRemote() {
		if s.Remote == nil {
			return enhance.Result{}, fmt.Errorf("%s needs a remote: %w", r, ErrUnknownRecipe)
		}
		// Check the user's photo is readable before spending money on it
		if _, err := enhance.DecodeImage(img); err != nil {
			return enhance.Result{}, err
		}
	}

	cur := img
	var err error

	if len(r.Before) > 0 {
		if cur, err = s.remoteSteps(ctx, cur, r.Before); err != nil {
			return enhance.Result{}, err
		}
	}

	res := enhance.Result{}
	if r.Local != "" {
		req := enhance.Request{Preset: r.Local, Strength: sl, MaxBytes: s.Enhance.MaxOutputBytes}
		if res, err = enhance.Enhance(s.Enhance, cur, req); err != nil {
			if r.IsRemote() {
				return res, remoteOutputError(err)
			}
			return res, err
		}
		cur = res.Bytes
	}

	if len(r.After) > 0 {
		if cur, err = s.remoteSteps(ctx, cur, r.After); err != nil {
			return enhance.Result{}, err
		}
	}

	if r.IsRemote() {
		safety := res.Safety
		if res, err = enhance.Rebudget(s.Enhance, cur, s.Enhance.MaxOutputBytes); err != nil {
			return res, remoteOutputError(err)
		}
		res.Safety = safety
	}
	return res, nil
}

func (s *Service)remoteSteps(ctx context.Context, img []byte, steps []remote.Step) ([]byte, error) {
	out, err := s.Remote.Enhance(ctx, img, steps)
	if err != nil {
		return nil, fmt.Errorf("remote: %w", err)
	}
	return out, nil
}

// remoteOutputError hides the input-error sentinels: bad bytes from a
// model are our problem, not the user's photo.
func remoteOutputError(err error) error {
	return fmt.Errorf("remote output: %v", err)
}
