package utils

import "time"

// NowMillis returns the current time in milliseconds since the epoch
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
