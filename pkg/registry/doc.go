/*
Package registry declares which entity types are legal cable endpoints and
which type pairs may be connected.

The compatibility table is an explicit, statically-initialized adjacency
map over the closed set of termination variants. It is immutable after
process start; init panics if the relation is not symmetric so a bad edit
fails fast rather than producing direction-dependent validation.

The registry also answers the two structural questions cable validation
needs: how many positions a termination multiplexes (rear ports may carry
more than one) and whether an endpoint is connectable at all (virtual and
wireless interfaces are not, regardless of the table).
*/
package registry
