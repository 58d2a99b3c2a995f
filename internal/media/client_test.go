package media

import (
	"context"
	"errors"
	"strings"
	"testing"

	"server/internal/domain"
	"server/internal/providers/genai"
)

type fakeBackend struct {
	imageReq genai.ImageRequest
	imageRes *genai.ImageResult
	imageErr error

	videoReq genai.VideoRequest
	videoRes *genai.VideoResult
	videoErr error
}

func (f *fakeBackend) GenerateImage(ctx context.Context, req genai.ImageRequest) (*genai.ImageResult, error) {
	f.imageReq = req
	return f.imageRes, f.imageErr
}

func (f *fakeBackend) GenerateVideo(ctx context.Context, req genai.VideoRequest) (*genai.VideoResult, error) {
	f.videoReq = req
	return f.videoRes, f.videoErr
}

func TestGenerateLogoBuildsRequestAndAsset(t *testing.T) {
	backend := &fakeBackend{
		imageRes: &genai.ImageResult{Data: []byte{0x89, 'P', 'N', 'G'}, MimeType: "image/png"},
	}
	client := NewClient(backend)

	logo, err := client.GenerateLogo(context.Background(), "a lending library", domain.QualityHigh)
	if err != nil {
		t.Fatalf("GenerateLogo error: %v", err)
	}
	if !strings.HasSuffix(backend.imageReq.Prompt, "The organization: a lending library") {
		t.Fatalf("prompt mismatch: %q", backend.imageReq.Prompt)
	}
	if backend.imageReq.AspectRatio != "1:1" {
		t.Fatalf("aspect ratio mismatch: %q", backend.imageReq.AspectRatio)
	}
	if backend.imageReq.ImageSize != "2K" {
		t.Fatalf("image size mismatch: %q", backend.imageReq.ImageSize)
	}
	if logo.SourcePrompt != "a lending library" {
		t.Fatalf("source prompt mismatch: %q", logo.SourcePrompt)
	}
	if !strings.HasPrefix(logo.ImageURL, "data:image/png;base64,") {
		t.Fatalf("image url mismatch: %q", logo.ImageURL)
	}
	if string(logo.RawImage) != "\x89PNG" {
		t.Fatalf("raw image mismatch: %q", logo.RawImage)
	}
}

func TestGenerateLogoRejectsEmptyDescription(t *testing.T) {
	client := NewClient(&fakeBackend{})
	if _, err := client.GenerateLogo(context.Background(), "", domain.QualityStandard); !errors.Is(err, domain.ErrInvalidPrompt) {
		t.Fatalf("expected ErrInvalidPrompt, got %v", err)
	}
}

func TestGenerateLogoPropagatesBackendError(t *testing.T) {
	backend := &fakeBackend{imageErr: &domain.ProviderError{Message: "quota exceeded"}}
	client := NewClient(backend)
	_, err := client.GenerateLogo(context.Background(), "x", domain.QualityStandard)
	var provErr *domain.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
}

func TestAnimateLogoSeedsImageAndShape(t *testing.T) {
	backend := &fakeBackend{
		videoRes: &genai.VideoResult{Data: []byte("mp4"), MimeType: "video/mp4"},
	}
	client := NewClient(backend)
	logo := &domain.LogoAsset{RawImage: []byte("png"), MimeType: "image/png"}

	anim, err := client.AnimateLogo(context.Background(), logo, "gentle spin", domain.FramePortrait)
	if err != nil {
		t.Fatalf("AnimateLogo error: %v", err)
	}
	if !strings.HasSuffix(backend.videoReq.Prompt, "Motion: gentle spin") {
		t.Fatalf("prompt mismatch: %q", backend.videoReq.Prompt)
	}
	if string(backend.videoReq.ImageBytes) != "png" || backend.videoReq.ImageMimeType != "image/png" {
		t.Fatalf("seed image mismatch: %+v", backend.videoReq)
	}
	if backend.videoReq.AspectRatio != "9:16" {
		t.Fatalf("aspect ratio mismatch: %q", backend.videoReq.AspectRatio)
	}
	if anim.SourcePrompt != "gentle spin" {
		t.Fatalf("source prompt mismatch: %q", anim.SourcePrompt)
	}
	if anim.VideoURL != "" {
		t.Fatalf("video url should be bound by the caller, got %q", anim.VideoURL)
	}
}

func TestAnimateLogoRequiresLogo(t *testing.T) {
	client := NewClient(&fakeBackend{})
	if _, err := client.AnimateLogo(context.Background(), nil, "spin", domain.FrameSquare); !errors.Is(err, domain.ErrLogoRequired) {
		t.Fatalf("expected ErrLogoRequired for nil logo, got %v", err)
	}
	empty := &domain.LogoAsset{}
	if _, err := client.AnimateLogo(context.Background(), empty, "spin", domain.FrameSquare); !errors.Is(err, domain.ErrLogoRequired) {
		t.Fatalf("expected ErrLogoRequired for empty logo, got %v", err)
	}
}

func TestAnimateLogoRejectsEmptyMotion(t *testing.T) {
	client := NewClient(&fakeBackend{})
	logo := &domain.LogoAsset{RawImage: []byte("png"), MimeType: "image/png"}
	if _, err := client.AnimateLogo(context.Background(), logo, "", domain.FrameSquare); !errors.Is(err, domain.ErrInvalidPrompt) {
		t.Fatalf("expected ErrInvalidPrompt, got %v", err)
	}
}
