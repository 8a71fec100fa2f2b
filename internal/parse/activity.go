package parse

import "strings"

const (
	activitySep    = "|"
	activityFields = 3
)

// ParseActivity splits a pipe-delimited line into an ActivityRecord.
// Short lines leave trailing fields missing; extra fields are ignored.
func ParseActivity(line string) ActivityRecord {
	fields := strings.SplitN(line, activitySep, activityFields+1)
	var rec ActivityRecord
	if len(fields) > 0 {
		rec.Timestamp = fields[0]
	}
	if len(fields) > 1 {
		rec.Tool = fields[1]
	}
	if len(fields) > 2 {
		rec.Result = fields[2]
	}
	if len(fields) < activityFields {
		rec.missing = activityFields - len(fields)
	}
	return rec
}
