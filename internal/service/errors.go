package service

import "errors"

var (
	ErrDraftNotFound = errors.New("draft not found")
	ErrRateLimited   = errors.New("too many submissions, try again later")
	ErrInvalidPeriod = errors.New("period must be one of 7d, 30d, 90d, all")
)
