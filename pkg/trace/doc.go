/*
Package trace implements the cable path tracer.

Given a starting termination, the tracer follows the chain

	termination -> cable -> peer termination -> (pass-through hop) -> ...

until a non-pass-through termination is reached (the destination) or the
chain breaks. Front ports relay to their rear port; rear ports relay back
down to the front port at the originating position; circuit terminations
relay to the circuit's far side.

# Algorithm

The walk is a deterministic, iterative state machine, not a recursion, so
stack depth stays constant on arbitrarily long patch chains:

  - An explicit position stack records which front-port slot each
    many-to-one rear port was entered through, so the matching front port
    is picked when descending later.
  - A set of crossed cable IDs detects rings. A loop terminates the trace
    with the path so far and no destination; it is a reported state, not
    an error, so bad data already in storage stays renderable.
  - A rear port with more than one position and no recorded originating
    slot cannot be disambiguated: the trace stops and reports every mapped
    front port as a split branch. A mid-chain start (tracing from a rear
    port directly) may legitimately split this way.
  - A hop guard (MaxHops) fails the trace with ErrPathTooLong as a last
    defense against corrupted chains the loop check cannot catch.

A rear port with exactly one position never touches the position stack;
its position is implicitly 1.

# Reads

The tracer sees storage through the narrow Graph interface. Anything that
can resolve terminations, cables, front ports, and circuit terminations
can back it, which keeps the algorithm testable against an in-memory map.
*/
package trace
