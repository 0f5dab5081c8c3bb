// Package s3 stores snapshots in Amazon S3.
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	if err != nil { ... }
//
//	store := s3.NewStore(s3.NewFromConfig(cfg), "my-bucket", "schwarz/")
//	err = checkpoint.Save(ctx, store, "setup/rank-0", snap)
//
// Reads use ranged GETs, writes stream through multipart uploads with
// CRC32C transfer validation, and listing paginates automatically.
//
// CommitStore adds atomic publication of whole snapshot sets on top,
// using DynamoDB conditional writes for the compare-and-swap S3
// lacks.
package s3
