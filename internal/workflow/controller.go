package workflow

import (
	"context"
	"strings"
	"sync"
	"time"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/infra/credentials"
)

// MediaClient is the controller's view of the generation facade.
type MediaClient interface {
	GenerateLogo(ctx context.Context, description string, quality domain.ImageQuality) (*domain.LogoAsset, error)
	AnimateLogo(ctx context.Context, logo *domain.LogoAsset, motion string, shape domain.FrameShape) (*domain.AnimationAsset, error)
}

// Controller owns the state of one wizard session and is the only thing
// allowed to mutate it. All methods are safe for concurrent use; the Busy
// flag guarantees at most one generation call in flight per session.
type Controller struct {
	id     string
	media  MediaClient
	creds  credentials.Selector
	logger *infra.Logger

	// Status rotation intervals, overridable in tests.
	designTick  time.Duration
	animateTick time.Duration

	mu    sync.Mutex
	state domain.WorkflowState
}

func newController(id string, media MediaClient, creds credentials.Selector, logger *infra.Logger, designTick, animateTick time.Duration) *Controller {
	return &Controller{
		id:          id,
		media:       media,
		creds:       creds,
		logger:      logger,
		designTick:  designTick,
		animateTick: animateTick,
		state:       domain.NewWorkflowState(),
	}
}

// ID returns the session identifier.
func (c *Controller) ID() string {
	return c.id
}

// Snapshot returns a copy of the current state. Asset pointers are shared but
// assets are immutable once created, so the copy is safe to read freely.
func (c *Controller) Snapshot() domain.WorkflowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CheckCredential confirms (or obtains, via the selector) a usable API key
// and advances Setup to Design. It is a no-op once past Setup.
func (c *Controller) CheckCredential(ctx context.Context) error {
	c.mu.Lock()
	if c.state.CurrentStep != domain.StepSetup {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	ok, err := c.creds.Has(ctx)
	if err == nil && !ok {
		err = c.creds.Select(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state.LastError = err.Error()
		return domain.ErrCredentialCheckFailed
	}
	c.state.LastError = ""
	c.state.CurrentStep = domain.StepDesign
	return nil
}

// SubmitLogoDescription generates a logo from the description. The session
// stays in Design whether the call succeeds or fails; a success replaces the
// logo wholesale and discards any animation derived from the previous one.
func (c *Controller) SubmitLogoDescription(ctx context.Context, description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return domain.ErrInvalidPrompt
	}

	c.mu.Lock()
	if c.state.CurrentStep != domain.StepDesign {
		c.mu.Unlock()
		return domain.ErrInvalidStep
	}
	if c.state.Busy {
		c.mu.Unlock()
		return domain.ErrBusy
	}
	c.state.Busy = true
	c.state.LastError = ""
	quality := c.state.ImageQuality
	c.mu.Unlock()

	stop := c.rotateStatus(designStatusMessages, c.designTick)
	logo, err := c.media.GenerateLogo(ctx, description, quality)
	stop()

	return c.settle(ctx, err, func(s *domain.WorkflowState) {
		s.Logo = logo
		s.Animation = nil
	})
}

// SubmitAnimationPrompt animates the current logo from the motion
// description. On success the session moves to View; on failure it stays in
// Animate.
func (c *Controller) SubmitAnimationPrompt(ctx context.Context, motion string) error {
	motion = strings.TrimSpace(motion)
	if motion == "" {
		return domain.ErrInvalidPrompt
	}

	c.mu.Lock()
	if c.state.CurrentStep != domain.StepAnimate {
		c.mu.Unlock()
		return domain.ErrInvalidStep
	}
	if c.state.Logo == nil {
		c.mu.Unlock()
		return domain.ErrLogoRequired
	}
	if c.state.Busy {
		c.mu.Unlock()
		return domain.ErrBusy
	}
	c.state.Busy = true
	c.state.LastError = ""
	logo := c.state.Logo
	shape := c.state.FrameShape
	c.mu.Unlock()

	stop := c.rotateStatus(animateStatusMessages, c.animateTick)
	animation, err := c.media.AnimateLogo(ctx, logo, motion, shape)
	stop()

	return c.settle(ctx, err, func(s *domain.WorkflowState) {
		animation.VideoURL = "/v1/sessions/" + c.id + "/animation/video"
		s.Animation = animation
		s.CurrentStep = domain.StepView
	})
}

// settle finishes an in-flight generation: applies the success mutation or
// records the failure, runs the access-denied credential recovery, and clears
// the busy flag exactly once either way.
func (c *Controller) settle(ctx context.Context, err error, apply func(*domain.WorkflowState)) error {
	if err != nil && domain.IsAccessDenied(err) {
		if selErr := c.creds.Select(ctx); selErr != nil && c.logger != nil {
			c.logger.Warn().Err(selErr).Str("session", c.id).Msg("workflow: credential re-selection failed")
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Busy = false
	c.state.StatusMessage = ""
	if err != nil {
		c.state.LastError = err.Error()
		return err
	}
	apply(&c.state)
	return nil
}

// SetImageQuality changes the quality used by the next logo generation.
func (c *Controller) SetImageQuality(quality domain.ImageQuality) error {
	if _, err := domain.ParseImageQuality(string(quality)); err != nil {
		return err
	}
	c.mu.Lock()
	c.state.ImageQuality = quality
	c.mu.Unlock()
	return nil
}

// SetFrameShape changes the frame used by the next animation.
func (c *Controller) SetFrameShape(shape domain.FrameShape) error {
	if _, err := domain.ParseFrameShape(string(shape)); err != nil {
		return err
	}
	c.mu.Lock()
	c.state.FrameShape = shape
	c.mu.Unlock()
	return nil
}

// GoTo performs a manual navigation. Moving from View back to Design starts
// a fresh design: the logo and animation are cleared so nothing stale can be
// animated or viewed afterwards.
func (c *Controller) GoTo(step domain.Step) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Busy {
		return domain.ErrBusy
	}
	if c.state.CurrentStep == domain.StepSetup {
		return domain.ErrInvalidStep
	}

	switch step {
	case domain.StepDesign:
		if c.state.CurrentStep == domain.StepView {
			c.state.Logo = nil
			c.state.Animation = nil
		}
		c.state.CurrentStep = domain.StepDesign
	case domain.StepAnimate:
		if c.state.Logo == nil {
			return domain.ErrLogoRequired
		}
		c.state.CurrentStep = domain.StepAnimate
	case domain.StepView:
		if c.state.Animation == nil {
			return domain.ErrAnimationRequired
		}
		c.state.CurrentStep = domain.StepView
	default:
		return domain.ErrInvalidStep
	}
	return nil
}
