// Package tokencache stores bearer credentials under logical keys with an
// absolute expiry. Expiry is enforced on every read (lazy eviction); there is
// no background timer, so a caller can never race a sweep and observe an
// expired token as valid.
//
// Two backends ship: [Memory] for single-process clients (the default) and
// [Redis] for web deployments where several frontend instances share one
// cache.
package tokencache
