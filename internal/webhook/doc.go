// Package webhook verifies Svix-signed webhook deliveries such as the ones Clerk sends.
//
// A delivery carries three headers: svix-id, svix-timestamp (unix seconds) and
// svix-signature, a space separated list of "v1,<base64 HMAC-SHA256>" entries. The signed
// content is "<id>.<timestamp>.<raw body>" keyed with the base64 secret that follows the
// "whsec_" prefix. Verification always runs over the exact bytes received; callers must not
// re-encode the payload before verifying it.
package webhook
