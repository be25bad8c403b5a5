package app

import "github.com/velafocus/vela/internal/apperr"

var errInvalidStatsRange = &apperr.Error{
	Message: "the end of the reporting period cannot be before its start",
}
