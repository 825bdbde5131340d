// Package auth provides authentication and authorization for inventory-api.
//
// # Components
//
// The package is wired explicitly at startup, leaf first:
//
//   - Credentials: bcrypt secret verification over any store.PrincipalStore.
//     Unknown usernames are compared against a dummy hash so they cost the
//     same as a wrong password, and both return false.
//
//   - Codec: issues and parses HS256 JWTs signed with the configured
//     jwt_secret (at least 32 bytes). The signature is verified over the raw
//     header and payload before any claim is decoded.
//
//   - Gate: Login, Refresh and Authenticate. Authenticate parses the token,
//     re-resolves the subject against the credential store and then checks
//     expiry. Roles always come from the current lookup, not the token.
//
// # HTTP
//
//	mux.Handle("GET /products", auth.Middleware(gate)(auth.RequireIdentity()(h)))
//
// Middleware binds an Identity to the request context; handlers read it with
// FromContext. Requests without a bearer header pass through as anonymous and
// RequireIdentity turns them into 401 UNAUTHORIZED. Expired tokens get
// TOKEN_EXPIRED so clients know to log in again.
//
// # Failure Reasons
//
// MalformedToken, BadSignature, UnknownSubject and TokenExpired are reported to
// clients uniformly but logged with distinct reason attributes. Store failures
// during authentication deny the request.
package auth
