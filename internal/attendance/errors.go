package attendance

import "errors"

var (
	ErrDuplicateTap          = errors.New("duplicate tap")
	ErrInvalidCard           = errors.New("card not registered or inactive")
	ErrInactiveUser          = errors.New("user is inactive")
	ErrRecordNotFound        = errors.New("attendance record not found")
	ErrPhotoProcessingFailed = errors.New("photo processing failed")
)
