// Package auth implements credential hashing, the role model and the signed
// identity tokens handed out at login.
//
// Tokens carry a snapshot of the subject's role taken at issuance. A role
// change (for example a promotion to admin) only reaches the authorization
// gate after the subject logs in again or the old token expires. This avoids a
// store round trip per request at the cost of eventually consistent
// authorization state.
package auth
