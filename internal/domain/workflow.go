package domain

import (
	"fmt"
	"strings"
)

// Step identifies one of the wizard screens.
type Step string

const (
	StepSetup   Step = "setup"
	StepDesign  Step = "design"
	StepAnimate Step = "animate"
	StepView    Step = "view"
)

// ParseStep normalizes a user-supplied step name.
func ParseStep(s string) (Step, error) {
	switch Step(strings.ToLower(strings.TrimSpace(s))) {
	case StepSetup:
		return StepSetup, nil
	case StepDesign:
		return StepDesign, nil
	case StepAnimate:
		return StepAnimate, nil
	case StepView:
		return StepView, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStep, s)
	}
}

// ImageQuality selects the rendered logo resolution tier.
type ImageQuality string

const (
	QualityStandard ImageQuality = "standard"
	QualityHigh     ImageQuality = "high"
	QualityUltra    ImageQuality = "ultra"
)

// ImageSize maps the quality tier onto the generation API's size parameter.
func (q ImageQuality) ImageSize() string {
	switch q {
	case QualityHigh:
		return "2K"
	case QualityUltra:
		return "4K"
	default:
		return "1K"
	}
}

// ParseImageQuality normalizes a user-supplied quality name.
func ParseImageQuality(s string) (ImageQuality, error) {
	switch ImageQuality(strings.ToLower(strings.TrimSpace(s))) {
	case QualityStandard:
		return QualityStandard, nil
	case QualityHigh:
		return QualityHigh, nil
	case QualityUltra:
		return QualityUltra, nil
	default:
		return "", fmt.Errorf("unsupported image quality %q", s)
	}
}

// FrameShape selects the animation frame aspect.
type FrameShape string

const (
	FrameSquare    FrameShape = "square"
	FrameLandscape FrameShape = "landscape"
	FramePortrait  FrameShape = "portrait"
)

// AspectRatio maps the frame shape onto the generation API's aspect parameter.
func (f FrameShape) AspectRatio() string {
	switch f {
	case FrameLandscape:
		return "16:9"
	case FramePortrait:
		return "9:16"
	default:
		return "1:1"
	}
}

// ParseFrameShape normalizes a user-supplied frame shape name.
func ParseFrameShape(s string) (FrameShape, error) {
	switch FrameShape(strings.ToLower(strings.TrimSpace(s))) {
	case FrameSquare:
		return FrameSquare, nil
	case FrameLandscape:
		return FrameLandscape, nil
	case FramePortrait:
		return FramePortrait, nil
	default:
		return "", fmt.Errorf("unsupported frame shape %q", s)
	}
}

// WorkflowState is the whole observable state of one wizard session.
// It is owned by the session's controller; everything outside the controller
// only ever sees copies.
type WorkflowState struct {
	CurrentStep   Step
	Logo          *LogoAsset
	Animation     *AnimationAsset
	Busy          bool
	LastError     string
	ImageQuality  ImageQuality
	FrameShape    FrameShape
	StatusMessage string
}

// NewWorkflowState returns the initial state of a fresh session.
func NewWorkflowState() WorkflowState {
	return WorkflowState{
		CurrentStep:  StepSetup,
		ImageQuality: QualityStandard,
		FrameShape:   FrameSquare,
	}
}
