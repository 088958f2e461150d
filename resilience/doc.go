// Package resilience provides patterns for fault-tolerant backend calls.
//
// This package includes:
//   - Retry: retries failed operations with exponential backoff
//   - RateLimiter: token-bucket limiting for remote service quotas
//   - Bulkhead: bounds concurrent access to shared backend capacity
//
// A remote transcription client typically combines them:
//
//	err := rl.ExecuteWait(ctx, func() error {
//	    return resilience.RetryFunc(ctx, cfg, doRequest)
//	})
package resilience
