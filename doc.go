// Package store implements the gunpla shop backend: credential store and
// stateless JWT session auth, product catalog with filtered search, per-user
// carts, and immutable order snapshots with a status lifecycle.
//
// Persistence goes through Bun repositories, HTTP through Fiber controllers.
// Transport concerns (cookies, token lookup, status mapping) live in http.go
// and the controllers; everything else is transport-agnostic.
package store
