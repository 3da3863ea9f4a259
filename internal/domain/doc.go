// Package domain defines the record model for the influencer analytics platform.
//
// Types in this package are plain value objects: influencers, posts, tracking
// events (orders), payouts and campaigns, plus the Dataset snapshot that every
// scoring package consumes and the ExportDocument used for JSON import/export.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON/DB tags are allowed (they're metadata, not behavior)
//   - Validation methods are allowed (they're pure functions on the type)
//   - Constants and enums belong here
package domain
