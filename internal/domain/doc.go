// Package domain contains the core entities of the service: users, their
// sessions, the resolved caller identity, and tasks. It is independent of any
// storage or delivery mechanism.
package domain
