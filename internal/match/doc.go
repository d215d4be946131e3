// Package match ranks near-miss names for "did you mean" hints in
// diagnostics about unknown attributes and unknown view types.
package match
