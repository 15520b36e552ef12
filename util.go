package kvtx

import (
	"fmt"
)

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}

// fmtKey gives any comparable key a deterministic string form, used only to
// break ties between primary keys that share the same extracted value in a
// range index (K itself is not required to be ordered, only comparable).
func fmtKey(k any) string {
	return fmt.Sprintf("%v", k)
}
