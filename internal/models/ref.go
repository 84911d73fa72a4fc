package models

import "errors"

// ErrNotFound is returned by repositories when a referenced entity does not
// exist. Callers use it to tell not-found apart from storage failure.
var ErrNotFound = errors.New("not found")

// RefKind names the id namespace a transaction reference belongs to.
type RefKind string

const (
	RefInternal RefKind = "internal"
	RefExternal RefKind = "external"
)

// TxRef is a transaction reference that states which id namespace it means.
// Historical data conflated the two namespaces; every boundary that accepts a
// transaction reference takes a TxRef so the ambiguity cannot reappear. Only
// the ledger migration resolves refs of unknown provenance.
type TxRef struct {
	Kind RefKind `json:"kind"`
	ID   string  `json:"id"`
}

func InternalRef(id string) TxRef { return TxRef{Kind: RefInternal, ID: id} }
func ExternalRef(id string) TxRef { return TxRef{Kind: RefExternal, ID: id} }
