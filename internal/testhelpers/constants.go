// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package testhelpers

import (
	"time"
)

// ShortWait is how long a test blocks waiting for something that should
// not happen; the suite really does wait this long before moving on.
const ShortWait = 50 * time.Millisecond

// LongWait is used when something should already have happened or will
// happen quickly. It is generous so slow machines don't produce
// spurious failures, and a passing test never waits the full interval.
const LongWait = 10 * time.Second
