package reports

import "errors"

var (
	// ErrMissingPhoto indicates a submission without a photo.
	ErrMissingPhoto = errors.New("photo is required")
	// ErrConsentRequired indicates the reporter did not agree to share the report.
	ErrConsentRequired = errors.New("consent to share is required")
	// ErrUnsupportedImage indicates the photo is not a JPEG or PNG.
	ErrUnsupportedImage = errors.New("photo must be a JPEG or PNG image")
	// ErrPhotoTooLarge indicates the photo exceeds the upload limit.
	ErrPhotoTooLarge = errors.New("photo is too large")
	// ErrUnknownLocation indicates the location is not one of the report locations.
	ErrUnknownLocation = errors.New("unknown report location")
)
