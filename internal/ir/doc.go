// Package ir provides the foundational types for the record-wire network.
//
// This package contains value types and capability interfaces only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Positions are integer block coordinates; a Connection is identified by
//     its unordered endpoint pair
//   - Component is a capability (name + capacity contribution), not a base class
//   - Component names are NFC normalized before they are used as count keys
//   - Canonical JSON (RFC 8785) forbids floats; capacities are rendered with
//     FormatCapacity before hashing
package ir
