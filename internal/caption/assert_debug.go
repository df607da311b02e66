//go:build captiondebug

package caption

// DebugAssertions reports whether precondition breaches panic.
const DebugAssertions = true
