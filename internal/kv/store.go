// Package kv holds the client-local durable state shared by every context of
// one terminal installation: the sticky table, the per-table carts and the
// cash-request map.
package kv

// Store is a flat string key-value space with change notifications. Values
// survive process restart in the file-backed implementation. A notification
// carries only the key that changed; an empty key means the whole space may
// have changed and subscribers should re-read everything they care about.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
	Keys() []string
	// Clear wipes the space except for the listed keys, which keep their
	// values across the clear.
	Clear(preserve ...string)
	Subscribe(fn func(key string)) (unsubscribe func())
}
