// Package executor builds and issues HTTP requests against the target under
// test and classifies every attempt into an [Outcome].
//
// A [RequestBuilder] is constructed once from configuration; validation
// (method, headers, body source) happens at construction so the per-request
// path stays allocation-light. [Executor.Execute] performs one exchange:
//
//	exec, err := executor.New(cfg, executor.NewClient(cfg.Timeout, cfg.Users), provider)
//	if err != nil {
//		return err
//	}
//	outcome := exec.Execute(ctx)
//
// Latency on a completed outcome covers the full response body read, not just
// headers. Failed attempts are classified into a fixed set of categories
// (timeout, connection error, HTTP status carried through an error chain,
// unknown) whose labels feed the error distribution in reports. Cancellation
// during shutdown yields a Canceled outcome that callers drop rather than
// record.
package executor
