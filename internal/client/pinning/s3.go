package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/flashvault/internal/client/models"
	"github.com/dmitrijs2005/flashvault/internal/common"
	"github.com/google/uuid"
)

// S3API is the subset of *s3.Client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

var loadDefaultAWSConfig = config.LoadDefaultConfig

// NewS3Client builds a path-style client for an S3-compatible endpoint.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	if cfg.Bucket == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: s3 bucket and credentials are required", common.ErrConfiguration)
	}
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: aws config: %v", common.ErrConfiguration, err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	}), nil
}

// Object metadata keys. The service stores the CID under "cid".
const (
	metaCID   = "cid"
	metaName  = "name"
	metaType  = "type"
	metaOwner = "owner"
)

// S3Store implements Store on an IPFS-backed bucket. Objects are keyed by
// pin name; the CID to key mapping is remembered for Unpin and rebuilt from a
// listing when unknown.
type S3Store struct {
	api     S3API
	bucket  string
	gateway *Gateway

	mu   sync.Mutex
	keys map[string]string
}

func NewS3Store(api S3API, bucket string, gateway *Gateway) *S3Store {
	return &S3Store{api: api, bucket: bucket, gateway: gateway, keys: map[string]string{}}
}

// objectKey makes the key unique: pin names only carry millisecond time.
func objectKey(name string) string {
	return name + "-" + uuid.NewString() + ".json"
}

func (s *S3Store) remember(cid, key string) {
	s.mu.Lock()
	s.keys[cid] = key
	s.mu.Unlock()
}

func (s *S3Store) Publish(ctx context.Context, content any, meta models.PinMetadata) (string, error) {
	body, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("publish %s: %w: %v", meta.Name, common.ErrValidation, err)
	}

	key := objectKey(meta.Name)
	md := map[string]string{metaName: meta.Name}
	for k, v := range meta.KeyValues {
		md[k] = v
	}

	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata:    md,
	})
	if err != nil {
		return "", mapS3Error("publish "+meta.Name, err)
	}

	head, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		return "", mapS3Error("publish "+meta.Name, err)
	}
	cid := head.Metadata[metaCID]
	if cid == "" {
		return "", fmt.Errorf("publish %s: %w: object has no cid metadata", meta.Name, common.ErrUpload)
	}
	s.remember(cid, key)
	return cid, nil
}

func (s *S3Store) Unpin(ctx context.Context, cid string) error {
	s.mu.Lock()
	key, ok := s.keys[cid]
	s.mu.Unlock()

	if !ok {
		if _, err := s.ListPins(ctx); err != nil {
			return err
		}
		s.mu.Lock()
		key, ok = s.keys[cid]
		s.mu.Unlock()
		if !ok {
			return fmt.Errorf("unpin %s: %w", cid, common.ErrNotFound)
		}
	}

	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		return mapS3Error("unpin "+cid, err)
	}
	s.mu.Lock()
	delete(s.keys, cid)
	s.mu.Unlock()
	return nil
}

func (s *S3Store) Fetch(ctx context.Context, cid string) ([]byte, error) {
	return s.gateway.Fetch(ctx, cid)
}

func (s *S3Store) ListPins(ctx context.Context) ([]models.Pin, error) {
	var pins []models.Pin
	p := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, mapS3Error("list pins", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, ".json") {
				continue
			}
			head, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: obj.Key})
			if err != nil {
				return nil, mapS3Error("list pins", err)
			}
			cid := head.Metadata[metaCID]
			if cid == "" {
				continue
			}
			s.remember(cid, key)

			name := head.Metadata[metaName]
			if name == "" {
				name = strings.TrimSuffix(key, ".json")
			}
			kv := map[string]string{}
			if v := head.Metadata[metaType]; v != "" {
				kv[models.KeyType] = v
			}
			if v := head.Metadata[metaOwner]; v != "" {
				kv[models.KeyOwner] = v
			}
			pins = append(pins, models.Pin{CID: cid, Name: name, KeyValues: kv, PinnedAt: aws.ToTime(obj.LastModified)})
		}
	}
	return pins, nil
}

// mapS3Error treats any answer from the service as an upload error and
// everything else as a transport failure.
func mapS3Error(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %w: %w", op, common.ErrUpload, err)
	}
	return mapError(op, err, common.ErrUpload)
}
