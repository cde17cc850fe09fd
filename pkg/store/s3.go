package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vango-dev/opinions/pkg/opinion"
	"github.com/vango-dev/opinions/pkg/signup"
)

// S3API is the subset of the S3 client S3Store uses.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// snapshot is the JSON document S3Store reads and writes.
type snapshot struct {
	Opinions []opinion.Opinion `json:"opinions"`
	Accounts []Account         `json:"accounts"`
}

// S3Store is a MemoryStore that writes a JSON snapshot to one S3 object
// after every change.
//
// A failed write is reported to the caller; the change stays in memory and
// is part of the next snapshot.
//
// Example usage:
//
//	client := store.NewS3Client(store.S3ClientConfig{Region: "eu-west-1"})
//	s, err := store.OpenS3(ctx, client, "my-bucket", "opinions.json")
type S3Store struct {
	mem    *MemoryStore
	client S3API
	bucket string
	key    string

	writeMu sync.Mutex
}

// OpenS3 loads the snapshot at bucket/key, if any, and returns the store.
func OpenS3(ctx context.Context, client S3API, bucket, key string, opts ...Option) (*S3Store, error) {
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("s3 bucket and key are required")
	}
	s := &S3Store{
		mem:    NewMemoryStore(opts...),
		client: client,
		bucket: bucket,
		key:    key,
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *S3Store) load(ctx context.Context) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil
		}
		return fmt.Errorf("get snapshot: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	s.mem.restore(snap)
	return nil
}

func (s *S3Store) persist(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	data, err := json.Marshal(s.mem.snapshot())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}

// ListOpinions returns every opinion in creation order.
func (s *S3Store) ListOpinions(ctx context.Context) ([]opinion.Opinion, error) {
	return s.mem.ListOpinions(ctx)
}

// CreateOpinion stores d and writes the snapshot.
func (s *S3Store) CreateOpinion(ctx context.Context, d opinion.Draft) (opinion.Opinion, error) {
	op, err := s.mem.CreateOpinion(ctx, d)
	if err != nil {
		return opinion.Opinion{}, err
	}
	return op, s.persist(ctx)
}

// Vote adds delta and writes the snapshot.
func (s *S3Store) Vote(ctx context.Context, id string, delta int) (opinion.Opinion, error) {
	op, err := s.mem.Vote(ctx, id, delta)
	if err != nil {
		return opinion.Opinion{}, err
	}
	return op, s.persist(ctx)
}

// CreateAccount stores a new account and writes the snapshot.
func (s *S3Store) CreateAccount(ctx context.Context, in signup.Input) (Account, error) {
	acct, err := s.mem.CreateAccount(ctx, in)
	if err != nil {
		return Account{}, err
	}
	return acct, s.persist(ctx)
}

// Close closes the in-memory state. The snapshot is already current.
func (s *S3Store) Close() error {
	return s.mem.Close()
}

// S3ClientConfig holds the settings NewS3Client needs.
type S3ClientConfig struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// NewS3Client builds an S3 client from static settings. Without keys the
// client sends anonymous requests.
func NewS3Client(cfg S3ClientConfig) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.UsePathStyle,
		Credentials:  aws.AnonymousCredentials{},
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKeyID != "" {
		key, secret := cfg.AccessKeyID, cfg.SecretAccessKey
		opts.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) {
				return aws.Credentials{AccessKeyID: key, SecretAccessKey: secret, Source: "opinions"}, nil
			}))
	}
	return s3.New(opts)
}

var _ Store = (*S3Store)(nil)
