//go:build !captiondebug

package caption

// DebugAssertions reports whether precondition breaches panic. Build with
// -tags captiondebug to enable; release builds repair the input instead.
const DebugAssertions = false
