// Package retire implements the index retirement pipeline: the age filter
// selecting indices past their retention window, the per-index state machine
// that snapshots, verifies and deletes them, and the runner that drives the
// machines sequentially.
package retire

import (
	"time"

	"github.com/stackward/esretire/internal/elasticsearch"
)

const hoursPerDay = 24

// AgeInDays returns the whole number of days elapsed between created and now.
// Partial days are truncated, so an index is a day old only once a full 24
// hours have passed.
func AgeInDays(now, created time.Time) int64 {
	return int64(now.Sub(created) / (hoursPerDay * time.Hour))
}

// SelectOutdated returns the names of the indices whose age in whole days
// strictly exceeds keepDays. An index created exactly keepDays ago is
// retained. Input order is preserved.
func SelectOutdated(indices []elasticsearch.IndexRecord, keepDays int, now time.Time) []string {
	var outdated []string
	for _, record := range indices {
		if AgeInDays(now, record.CreationDate.Time) > int64(keepDays) {
			outdated = append(outdated, record.Index)
		}
	}
	return outdated
}
