// Package resilience groups the fault-tolerance helpers used around external
// calls: language model APIs, remote document sources and the database.
//
//	cb := circuitbreaker.New(circuitbreaker.ModelAPIConfig("claude-api"))
//	label, err := retry.Do(ctx, retry.ModelAPIConfig(), func() (string, error) {
//	    return circuitbreaker.Call(cb, func() (string, error) {
//	        return client.Complete(ctx, prompt, 16)
//	    })
//	})
package resilience
