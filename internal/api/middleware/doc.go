// Package middleware contains the HTTP middleware that runs in front of the
// API handlers: request logging, the cross-origin and same-origin policies,
// the context composition pipeline and the role guards.
//
// The pipeline fills the per-request shared.RequestContext in a fixed order
// (bindings, database handle, authentication provider, caller identity).
// Guards and handlers only read it.
package middleware
