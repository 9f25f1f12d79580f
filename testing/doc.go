// Package testing provides test utilities for the mbxas library.
//
// This package offers helpers for setting up test environments: an embedded
// NATS server with JetStream, a testing.T-backed logger, and a harness that
// runs a full multi-rank world inside a single test process. It follows Go's
// convention of providing testing utilities in a dedicated package (similar
// to net/http/httptest).
//
// Example usage:
//
//	import (
//	    "testing"
//	    mbxtest "github.com/chrinide/mbxas/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    _, nc := mbxtest.StartEmbeddedNATS(t)
//	    // Use nc for your tests
//	}
package testing
