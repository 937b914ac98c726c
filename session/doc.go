// Package session performs authenticated calls against the figo Connect REST
// API on behalf of one user.
//
// Call is the generic entry point; the resource helpers built on it decode the
// documented endpoints into plain structs. A missing resource is not an error:
// Call returns a Result whose Found reports false, and single-resource helpers
// return false as their second value.
//
//	s, err := session.New(tr, tokens.AccessToken)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	account, found, err := s.Account(ctx, "A1.1")
//
// Long-running bank synchronizations are server-side tasks:
//
//	task, err := s.StartSync(ctx, session.SyncRequest{State: state})
//	// send the user to s.SyncURL(task) or poll:
//	final, err := s.WaitForTask(ctx, task)
package session
