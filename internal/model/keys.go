package model

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Lower folds s to lowercase using Unicode case rules.
func Lower(s string) string {
	// A Caser keeps state, so each call gets its own.
	return cases.Lower(language.Und).String(s)
}

// Namespace returns the storage partition for an app/partner pair.
func Namespace(appID, partnerID string) string {
	return appID + "_" + partnerID
}

// StorageKey returns the globally unique key of a transaction. Order IDs that
// differ only by case collapse to the same key.
func StorageKey(namespace, orderID string) string {
	return Lower(namespace + ":" + orderID)
}

// CursorKey identifies the progress cursor of one binding. The app ID is case
// folded, the partner ID is kept as registered.
func CursorKey(appID, partnerID string) string {
	return Lower(appID) + ":" + partnerID
}
