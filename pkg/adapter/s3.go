package adapter

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ipld/go-ipld-prime/datamodel"

	"github.com/warptools/ledgerview/lvapi"
	"github.com/warptools/ledgerview/pkg/logging"
)

const S3Scheme = "s3"

// S3Store keeps documents in an S3 bucket, addressed as "s3://<bucket>/<key>".
// Uploads are stored under the CID of their dag-json encoding,
// sharded like "bagu/qee/baguqee...", so identical documents share one object.
type S3Store struct {
	client *s3.Client
	cfg    lvapi.S3AdapterConfig
}

func docKey(cidStr string) string {
	return path.Join(cidStr[0:4], cidStr[4:7], cidStr)
}

// NewS3Store creates an S3 client for cfg and checks that its bucket is reachable.
// Extra options are applied on top of the defaults (credentials, for instance).
//
// Errors:
//
//  - ledgerview-error-internal -- when the AWS configuration cannot be loaded
//  - ledgerview-error-io -- when the bucket cannot be accessed
func NewS3Store(ctx context.Context, cfg lvapi.S3AdapterConfig, optFns ...func(*config.LoadOptions) error) (*S3Store, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.Endpoint != nil {
		endpoint := *cfg.Endpoint
		opts = append(opts, config.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:               endpoint,
					HostnameImmutable: true,
					SigningRegion:     cfg.Region,
				}, nil
			})))
	}
	opts = append(opts, optFns...)
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, lvapi.ErrorInternal("failed to load aws configuration", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		o.UsePathStyle = cfg.Endpoint != nil
	})

	// make sure we can access the specified bucket
	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, lvapi.ErrorIo("could not access bucket", cfg.Bucket, err)
	}

	return &S3Store{
		client: client,
		cfg:    cfg,
	}, nil
}

// splitS3URI returns bucket and key of "s3://<bucket>/<key>".
func splitS3URI(uri string) (string, string, error) {
	parts := strings.SplitN(trimScheme(uri), "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", lvapi.ErrorOffChainData("invalid s3 uri: expected s3://<bucket>/<key>", uri)
	}
	return parts[0], parts[1], nil
}

// Errors:
//
//  - ledgerview-error-offchain-data-runtime -- when uri is malformed
//  - ledgerview-error-io -- when the object cannot be fetched
//  - ledgerview-error-serialization -- when the object does not decode
func (st *S3Store) Download(ctx context.Context, uri string) (datamodel.Node, error) {
	bucket, key, err := splitS3URI(uri)
	if err != nil {
		return nil, err
	}
	out, err := st.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var responseError *awshttp.ResponseError
		if errors.As(err, &responseError) && responseError.ResponseError.HTTPStatusCode() == http.StatusNotFound {
			return nil, lvapi.ErrorIo("no such object", uri, err)
		}
		return nil, lvapi.ErrorIo("failed to get object", uri, err)
	}
	defer out.Body.Close()
	serial, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, lvapi.ErrorIo("failed to read object", uri, err)
	}
	logging.Ctx(ctx).Debug("s3", "fetched %s (%d bytes)", uri, len(serial))
	return DecodeByName(key, serial)
}

// Errors:
//
//  - ledgerview-error-serialization -- when doc cannot be encoded
//  - ledgerview-error-io -- when the upload fails
func (st *S3Store) Upload(ctx context.Context, doc datamodel.Node) (string, error) {
	serial, c, err := contentAddress(doc)
	if err != nil {
		return "", err
	}
	key := docKey(c.String()) + ".dag-json"
	uri := S3Scheme + "://" + st.cfg.Bucket + "/" + key
	if err := st.put(ctx, st.cfg.Bucket, key, serial); err != nil {
		return "", lvapi.ErrorIo("failed to upload document", uri, err)
	}
	logging.Ctx(ctx).Debug("s3", "uploaded %s", uri)
	return uri, nil
}

// Update overwrites the object at uri in place.
//
// Errors:
//
//  - ledgerview-error-offchain-data-runtime -- when uri is malformed
//  - ledgerview-error-serialization -- when doc cannot be encoded
//  - ledgerview-error-io -- when the upload fails
func (st *S3Store) Update(ctx context.Context, uri string, doc datamodel.Node) (string, error) {
	bucket, key, err := splitS3URI(uri)
	if err != nil {
		return "", err
	}
	serial, _, err := contentAddress(doc)
	if err != nil {
		return "", err
	}
	if err := st.put(ctx, bucket, key, serial); err != nil {
		return "", lvapi.ErrorIo("failed to update document", uri, err)
	}
	return uri, nil
}

func (st *S3Store) put(ctx context.Context, bucket, key string, serial []byte) error {
	uploader := manager.NewUploader(st.client)
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(serial),
	})
	return err
}
