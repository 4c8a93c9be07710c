// Package resolve builds closed descriptor maps from message root types.
//
// Resolution registers each composite type in the map before walking its
// fields, so a field whose type is an ancestor finds the entry and stops.
// The first structural violation aborts the whole call; no partial map is
// returned.
package resolve
