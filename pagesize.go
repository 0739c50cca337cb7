package pagestage

import (
	"os"
	"sync"
)

// pageSize returns the platform's memory page granularity. The value is
// computed once and cached for the process lifetime; it cannot change
// while the process runs.
var pageSize = sync.OnceValue(os.Getpagesize)
