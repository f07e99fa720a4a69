// Package observe provides fsmx.Observer implementations: structured logs,
// counters, a channel publisher, a SQL audit journal and transition graph
// export.
//
// Observers are combined with fsmx.WithObserver, which fans callbacks out to
// each of them:
//
//	metrics := &observe.Metrics{}
//	rec := observe.NewRecorder()
//	m := fsmx.New(
//		fsmx.WithStates[*Hero](&Idle{}, &Walk{}),
//		fsmx.WithObserver[*Hero](observe.NewLoggingObserver(logger), metrics, rec),
//	)
package observe
