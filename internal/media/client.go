package media

import (
	"context"
	"encoding/base64"
	"fmt"

	"server/internal/domain"
	"server/internal/providers/genai"
	"server/internal/providers/prompt"
)

// Backend is the slice of the Gemini client this facade needs.
type Backend interface {
	GenerateImage(ctx context.Context, req genai.ImageRequest) (*genai.ImageResult, error)
	GenerateVideo(ctx context.Context, req genai.VideoRequest) (*genai.VideoResult, error)
}

// Client translates wizard requests into generation API calls. It holds no
// state of its own.
type Client struct {
	backend Backend
}

func NewClient(backend Backend) *Client {
	return &Client{backend: backend}
}

// GenerateLogo requests one logo image for the description. The style
// preamble is prepended and the aspect ratio is always square; only the
// quality tier varies.
func (c *Client) GenerateLogo(ctx context.Context, description string, quality domain.ImageQuality) (*domain.LogoAsset, error) {
	if description == "" {
		return nil, domain.ErrInvalidPrompt
	}

	res, err := c.backend.GenerateImage(ctx, genai.ImageRequest{
		Prompt:      prompt.Logo(description),
		AspectRatio: "1:1",
		ImageSize:   quality.ImageSize(),
	})
	if err != nil {
		return nil, err
	}

	return &domain.LogoAsset{
		ImageURL:     dataURI(res.MimeType, res.Data),
		RawImage:     res.Data,
		MimeType:     res.MimeType,
		SourcePrompt: description,
	}, nil
}

// AnimateLogo requests one animation seeded with the logo's image bytes.
// The caller binds the returned asset's VideoURL to its own serving path.
func (c *Client) AnimateLogo(ctx context.Context, logo *domain.LogoAsset, motion string, shape domain.FrameShape) (*domain.AnimationAsset, error) {
	if logo == nil || len(logo.RawImage) == 0 {
		return nil, domain.ErrLogoRequired
	}
	if motion == "" {
		return nil, domain.ErrInvalidPrompt
	}

	res, err := c.backend.GenerateVideo(ctx, genai.VideoRequest{
		Prompt:        prompt.Motion(motion),
		ImageBytes:    logo.RawImage,
		ImageMimeType: logo.MimeType,
		AspectRatio:   shape.AspectRatio(),
	})
	if err != nil {
		return nil, err
	}

	return &domain.AnimationAsset{
		Video:        res.Data,
		MimeType:     res.MimeType,
		SourcePrompt: motion,
	}, nil
}

func dataURI(mime string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}
