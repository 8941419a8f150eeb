package macro

import (
	"fmt"
	"sync/atomic"
)

var gensymCounter uint64

// gensym produces a name guaranteed unique within this process, used
// to rename the names a macro's template binds with let/lambda, for
// hygiene (spec §4.4).
func gensym(base string) string {
	n := atomic.AddUint64(&gensymCounter, 1)
	return fmt.Sprintf("%s_%d", base, n)
}
