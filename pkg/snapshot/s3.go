package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of *s3.Client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

var _ S3API = (*s3.Client)(nil)

const metaCreatedAt = "created-at"

// S3Store stores snapshots in an S3 bucket under a key prefix.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	store := snapshot.NewS3Store(s3.NewFromConfig(cfg), "my-bucket", "snapshots/", 1<<20)
type S3Store struct {
	client  S3API
	bucket  string
	prefix  string
	maxSize int64
}

// NewS3Store creates an S3Store.
//
// Parameters:
//   - client: S3 client from aws-sdk-go-v2
//   - bucket: S3 bucket name
//   - prefix: key prefix for snapshots (e.g., "snapshots/")
//   - maxSize: maximum snapshot size in bytes (0 = no limit)
func NewS3Store(client S3API, bucket, prefix string, maxSize int64) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix, maxSize: maxSize}
}

func (s *S3Store) key(name string) string {
	return s.prefix + name + htmlExt
}

// Save uploads the snapshot.
func (s *S3Store) Save(ctx context.Context, name string, r io.Reader) (*Info, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	data, err := readLimited(r, s.maxSize)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(name)),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(ContentType),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata: map[string]string{
			metaCreatedAt: now.Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: s3 put %s: %w", name, err)
	}
	return &Info{Name: name, Size: int64(len(data)), CreatedAt: now}, nil
}

// Load downloads the snapshot.
func (s *S3Store) Load(ctx context.Context, name string) (io.ReadCloser, *Info, error) {
	if err := ValidateName(name); err != nil {
		return nil, nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("snapshot: s3 get %s: %w", name, err)
	}

	info := &Info{Name: name, Size: aws.ToInt64(out.ContentLength)}
	if ts, ok := out.Metadata[metaCreatedAt]; ok {
		info.CreatedAt, _ = time.Parse(time.RFC3339Nano, ts)
	} else if out.LastModified != nil {
		info.CreatedAt = out.LastModified.UTC()
	}
	return out.Body, info, nil
}

// List pages through the prefix and returns the snapshots found.
func (s *S3Store) List(ctx context.Context) ([]Info, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var infos []Info
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("snapshot: s3 list: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			name := strings.TrimSuffix(strings.TrimPrefix(key, s.prefix), htmlExt)
			if !strings.HasSuffix(key, htmlExt) || ValidateName(name) != nil {
				continue
			}
			info := Info{Name: name, Size: aws.ToInt64(obj.Size)}
			if obj.LastModified != nil {
				info.CreatedAt = obj.LastModified.UTC()
			}
			infos = append(infos, info)
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}
