// Package minio implements checkpoint.Store on MinIO and other
// S3-compatible object stores using the native MinIO client, which
// needs no AWS configuration and works against air-gapped clusters.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := miniostore.NewStore(client, "checkpoints", "run-42/")
//	err = prec.SaveSetup(ctx, store, "rank-0.swz")
package minio
