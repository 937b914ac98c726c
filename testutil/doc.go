// Package testutil provides test doubles for code built on go-figo.
//
// MockAPIServer is a local HTTPS server that records requests and hands out a
// transport.Config pinned to its own certificate. FakeAPI implements the auth
// and a subset of the REST endpoints in memory so login flows, sessions and
// task polling can be exercised end to end without the real API.
//
//	fake := testutil.NewFakeAPI()
//	server := testutil.NewMockAPIServer(t, fake.Handler())
//	tr := server.Transport(t)
package testutil
