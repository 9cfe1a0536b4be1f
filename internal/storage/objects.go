package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectConfig locates an S3-compatible bucket.
type ObjectConfig struct {
	Endpoint string
	Bucket   string
	Access   string
	Secret   string
	Secure   bool
}

// Objects is a Port over an S3-compatible bucket. Each store is a key prefix.
// It is intended for the blob store only and is combined with another Port via Split.
type Objects struct {
	client *minio.Client
	bucket string
}

func OpenObjects(ctx context.Context, cfg ObjectConfig) (*Objects, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Access, cfg.Secret, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("create object client: %w", err)
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}
	return &Objects{client: client, bucket: cfg.Bucket}, nil
}

func objectKey(store Store, id string) string {
	return string(store) + "/" + id
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func (o *Objects) Get(ctx context.Context, store Store, id string) (Record, bool, error) {
	if err := validStore(store); err != nil {
		return Record{}, false, err
	}
	obj, err := o.client.GetObject(ctx, o.bucket, objectKey(store, id), minio.GetObjectOptions{})
	if err != nil {
		return Record{}, false, fmt.Errorf("get %s/%s: %w", store, id, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("read %s/%s: %w", store, id, err)
	}
	return Record{ID: id, Data: data}, true, nil
}

func (o *Objects) Put(ctx context.Context, store Store, rec Record) error {
	if err := validStore(store); err != nil {
		return err
	}
	_, err := o.client.PutObject(ctx, o.bucket, objectKey(store, rec.ID),
		bytes.NewReader(rec.Data), int64(len(rec.Data)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", store, rec.ID, err)
	}
	return nil
}

func (o *Objects) Delete(ctx context.Context, store Store, id string) error {
	if err := validStore(store); err != nil {
		return err
	}
	err := o.client.RemoveObject(ctx, o.bucket, objectKey(store, id), minio.RemoveObjectOptions{})
	if err != nil && !isNoSuchKey(err) {
		return fmt.Errorf("delete %s/%s: %w", store, id, err)
	}
	return nil
}

func (o *Objects) ListKeys(ctx context.Context, store Store) ([]string, error) {
	if err := validStore(store); err != nil {
		return nil, err
	}
	prefix := string(store) + "/"
	keys := []string{}
	for info := range o.client.ListObjects(ctx, o.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, fmt.Errorf("list %s: %w", store, info.Err)
		}
		keys = append(keys, strings.TrimPrefix(info.Key, prefix))
	}
	slices.Sort(keys)
	return keys, nil
}

func (o *Objects) Clear(ctx context.Context, store Store) error {
	keys, err := o.ListKeys(ctx, store)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := o.Delete(ctx, store, k); err != nil {
			return err
		}
	}
	return nil
}

func (o *Objects) Close() error { return nil }
