// Package services contains the server-side business logic: accounts and
// credentials (UserService), the live-document sync engine
// (DocumentService), and saved files (FileService).
//
// Services receive the caller's already-resolved identity from the boundary
// layer. Owner-scoped operations take that identity as the user id, so a
// caller can only ever touch its own rows; admin-only operations are gated
// at the boundary and take no owner filter.
package services

import "time"

// timeNow is the wall clock in unix seconds. A package-level seam so tests
// can pin it.
var timeNow = func() int64 { return time.Now().Unix() }
