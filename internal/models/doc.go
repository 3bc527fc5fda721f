// Package models defines the domain records persisted by visitlog.
//
// # Records
//
//   - User: a registered account, stored with its secret hash
//   - PublicUser: the projection of a User that is safe to hand to callers;
//     it is also the shape of the persisted session pointer
//   - Property: a place owned by exactly one User
//   - Visit: a scheduled visit to a Property, owned by one User
//
// # Storage shape
//
// Each collection is stored under a single key as a JSON object mapping record
// ID to record. The JSON field names follow the layout the mobile app writes,
// so existing device data stays readable:
// properties and visits reference their owner through "user_id".
//
// # Relationships
//
// Records reference each other by ID string only. A Visit's PropertyID is a
// plain reference; whether it is checked against the Property collection is a
// repository policy, not a model concern.
package models
