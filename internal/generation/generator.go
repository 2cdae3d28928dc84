package generation

import "context"

// TextToImageRequest carries the parameters of a text-to-image
// generation call.
type TextToImageRequest struct {
	Prompt         string
	NegativePrompt string
	Width          int
	Height         int
	Steps          int
	Scale          float64
	// Seed is the random seed for reproducibility; negative means the
	// provider picks one. Batch requests increment the seed per image.
	Seed        int64
	StylePreset string
	NumImages   int
}

// ImageToImageRequest carries the parameters of an image-to-image
// generation call. Image holds the base64-encoded input image, with or
// without a data-URI prefix.
type ImageToImageRequest struct {
	Image          string
	Prompt         string
	NegativePrompt string
	Strength       float64
	Steps          int
	Scale          float64
	Seed           int64
	StylePreset    string
}

// TextToImageResult is the provider's answer to a text-to-image call.
// Results holds one sub-result per requested image; a sub-result that
// failed carries an "error" key instead of image data. Success is true
// only when every sub-result is error-free.
//
// The sub-result shape is controlled by the provider and must be
// treated as untrusted; see the extraction package.
type TextToImageResult struct {
	Success bool
	Results []map[string]any
	Count   int
}

// ImageToImageResult is the provider's answer to an image-to-image
// call. Result is the provider's single nested response structure.
type ImageToImageResult struct {
	Success bool
	Result  map[string]any
}

// Generator is implemented by image-generation providers. Both calls
// block until the provider answers; cancellation is driven through the
// context. A provider-side failure for an individual image is reported
// inside the result, not as a returned error — returned errors mean the
// call itself could not be made.
type Generator interface {
	// TextToImage generates images from a text prompt.
	TextToImage(ctx context.Context, req TextToImageRequest) (*TextToImageResult, error)

	// ImageToImage transforms an input image guided by a text prompt.
	ImageToImage(ctx context.Context, req ImageToImageRequest) (*ImageToImageResult, error)
}
