package domain

// LogoAsset is one generated logo image. Created once per successful
// generation call, replaced wholesale on regeneration, never mutated.
type LogoAsset struct {
	// ImageURL is a data URI the presentation layer can bind directly.
	ImageURL string
	// RawImage holds the decoded image bytes used to seed animation.
	RawImage []byte
	MimeType string
	// SourcePrompt is the user's description, without the style preamble.
	SourcePrompt string
}

// AnimationAsset is one generated logo animation. Always derived from the
// session's current LogoAsset; immutable once created.
type AnimationAsset struct {
	// VideoURL is a session-relative reference the presentation layer can
	// bind to a video element.
	VideoURL     string
	Video        []byte
	MimeType     string
	SourcePrompt string
}
