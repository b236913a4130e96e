// Package policy provides the injectable policies middleware wraps broker
// calls in.
//
// A Provider maps well-known names (Publish, DeclareQueue, Ack, ...) to a
// Policy. The bus stores the provider in every invocation Context under
// pipe.PolicyProviderKey; middleware resolves its policy with FromContext and
// gets NoOp when nothing is registered.
//
//	provider := policy.NewProvider().
//		Register(policy.Publish, policy.NewRetry(policy.DefaultRetryConfig(), rabbit.IsRetryableError, log))
package policy
