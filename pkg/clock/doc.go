/*
Package clock implements the Lamport-style scalar logical clock that orders
CRDT updates across horao replicas.

Every replica owns a single Scalar clock. Whenever a replica creates a
local update it reads the clock for the new update's timestamp, then calls
Update with the highest timestamp it has observed so its own counter never
falls behind. Because counters only ever move forward, two timestamps can
be compared without any wall-clock synchronization between replicas:

	IsLater(a, b)       a happened causally after b
	AreConcurrent(a, b)  neither happened after the other
	Compare(a, b)        1, -1 or 0 summarizing the above

A scalar clock alone cannot prove causality the way a vector clock can; it
is a tiebreaker. CRDT merge logic in package crdt treats equal timestamps
as concurrent and resolves them with a secondary rule, never by
wall-clock arrival order: the last-writer-wins register compares writer
identifiers and then packed values, the multi-value register keeps every
concurrent value, and the OR-Set favours observe over remove.
*/
package clock
