package app

import (
	"os"
	"sync"
)

const testModeEnv = "TODO_TEST_MODE"

// InTestMode reports whether the process runs under tests and should skip
// runtime side effects such as binding a port. The flag is read once.
var InTestMode = sync.OnceValue(func() bool {
	return os.Getenv(testModeEnv) == "1"
})
