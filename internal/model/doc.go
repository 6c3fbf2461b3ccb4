// Package model defines shared data types used across the partner reports engine.
//
// Conventions:
//   - Timestamps: int64 seconds since Unix epoch, always interpreted in UTC
//   - Amounts: decimal.Decimal, serialized as strings
//   - USD values: *float64, nil when no price is known yet
//   - Storage keys: lowercase "<namespace>:<orderId>"
package model
