// Package match suggests corrections for misspelled names: Go type names
// in declaration files and member keys arriving on the wire.
//
// Names are folded before comparison so that faultCode, fault_code and
// FaultCode compare equal; the remaining difference is an edit distance.
package match
