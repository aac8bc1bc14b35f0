package registry

import "errors"

var (
	ErrNotOwner             = errors.New("caller is not the gateway owner")
	ErrUserNotWhitelisted   = errors.New("user is not whitelisted")
	ErrAccountAlreadyExists = errors.New("user already has a venue sub-account")
	ErrNoAccount            = errors.New("user has no venue sub-account")
	ErrAssetNotSupported    = errors.New("index asset is not supported")
)
