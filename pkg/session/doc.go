/*
Package session serialises access to conversation sessions.

Manager wraps a ports.SessionStore with a per-session critical section
(a reference-counted mutex, optionally backed by a distributed lock) so two
concurrent turns for the same user can never interleave their
read-modify-write. It also drives idle eviction through a periodic sweep.
*/
package session
