// Package mapping holds the descriptors capturing one domain type's wire
// shape: which fields occupy which array indexes (ArrayMapping) or struct
// keys (StructMapping), and which slots are supplied through a constructor.
//
// Descriptors are pure data. They are produced by the resolver, collected
// into a Map closed under field-type composition, and consumed read-only by
// the binding context.
package mapping
