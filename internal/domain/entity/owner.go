package entity

// OwnerSet is the flattened list of owner addresses gathered per token.
// An owner holding several tokens appears once per token.
type OwnerSet []string

// Append adds owners in the given order
func (s OwnerSet) Append(owners ...string) OwnerSet {
	return append(s, owners...)
}
