package viewapi

import (
	"testing"

	"launchdash/testutil"
)

// Hosts embed this package; it must never pull in internal code.
func TestNoInternalDependencies(t *testing.T) {
	testutil.AssertNoTransitiveDependency(t, ".", testutil.InternalImportForbidden, "viewapi is a public contract")
}
