package sink

import (
	"path"
	"time"
)

// TimestampLayout is the UTC run time embedded in object keys
const TimestampLayout = "2006-01-02T15:04:05Z"

// Timestamp formats the run time once per run; every key of the run shares it.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// FinancialKey returns {prefix}/{symbol}/{function}{symbol}_{ts}_.json for
// per-symbol functions and {prefix}/{shared}/{function}_{ts}_.json otherwise.
func FinancialKey(prefix, shared, function, symbol, ts string) string {
	if symbol != "" {
		return path.Join(prefix, symbol, function+symbol+"_"+ts+"_.json")
	}
	return path.Join(prefix, shared, function+"_"+ts+"_.json")
}

// CommentsKey returns {prefix}/{videoID}_{ts}_.csv.
func CommentsKey(prefix, videoID, ts string) string {
	return path.Join(prefix, videoID+"_"+ts+"_.csv")
}
