// Package jwt issues console tokens and inspects the expiry of tokens handed
// over by the credential service.
//
// [Manager] signs and verifies tokens with HS256 or Ed25519. The demo server
// uses it as its stand-in credential service. [Inspector] only reads the exp
// claim and never verifies signatures; the guard uses it to redirect expired
// sessions to the login page.
//
// # What this package must NOT do
//
//   - Import session, guard, or the root package.
//   - Treat an unverified token as proof of identity.
package jwt
