package s3

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const uploadURLExpiry = 15 * time.Minute

type Options struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

type FilePresigner struct {
	S3PresignClient *s3.PresignClient
	BucketName      string
	endpoint        string
}

func NewFilePresigner(ctx context.Context, opts Options) (*FilePresigner, error) {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")),
	)
	if err != nil {
		return nil, err
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(opts.Endpoint)
		o.UsePathStyle = opts.UsePathStyle
	})

	return &FilePresigner{
		S3PresignClient: s3.NewPresignClient(s3Client),
		BucketName:      opts.Bucket,
		endpoint:        strings.TrimRight(opts.Endpoint, "/"),
	}, nil
}

func (p *FilePresigner) GeneratePresignedUploadURL(ctx context.Context, objectKey string) (string, error) {
	request, err := p.S3PresignClient.PresignPutObject(
		ctx,
		&s3.PutObjectInput{
			Bucket:      aws.String(p.BucketName),
			Key:         aws.String(objectKey),
			ContentType: aws.String("image/jpeg"),
		},
		func(opts *s3.PresignOptions) {
			opts.Expires = uploadURLExpiry
		},
	)
	if err != nil {
		return "", err
	}

	return request.URL, nil
}

// PublicURL is where objectKey can be fetched once the upload completes.
func (p *FilePresigner) PublicURL(objectKey string) string {
	return p.endpoint + "/" + p.BucketName + "/" + objectKey
}
