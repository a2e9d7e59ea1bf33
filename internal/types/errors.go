package types

import "errors"

var (
	ErrUpstreamSearch   = errors.New("place search is temporarily unavailable")
	ErrUpstreamTimeout  = errors.New("upstream did not respond in time")
	ErrPlanParse        = errors.New("generated plan could not be parsed")
	ErrEmptyPlan        = errors.New("generated plan contains no activities")
	ErrNoSelections     = errors.New("no saved places for this trip")
	ErrPlanNotFound     = errors.New("no matching plan entry")
	ErrFrozenEntry      = errors.New("crew exists, cannot change")
	ErrNoPendingUpdate  = errors.New("no pending update found for the user")
	ErrUnknownTag       = errors.New("unknown preference tag")
	ErrTripNotFound     = errors.New("trip not found")
	ErrProfileNotFound  = errors.New("preference profile not found")
	ErrClassification   = errors.New("intent could not be classified")
	ErrInvalidArguments = errors.New("invalid function arguments")
)
