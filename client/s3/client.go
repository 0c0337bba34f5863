package s3

import (
	"context"
	"io"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/mwantia/remotefs/client"
)

// S3Client serves positional reads from a single S3 bucket through ranged
// object requests.
type S3Client struct {
	mu sync.RWMutex

	client     *minio.Client
	bucketName string
}

func NewS3Client(endpoint, bucketName, accessKey, secretKey string, useSsl bool) (*S3Client, error) {
	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSsl,
	})
	if err != nil {
		return nil, err
	}

	return &S3Client{
		client:     mc,
		bucketName: bucketName,
	}, nil
}

// Returns the identifier name defined for this client.
func (*S3Client) Name() string {
	return "s3"
}

// Open is part of the lifecycle behaviour and gets called when the client is registered.
func (sc *S3Client) Open(ctx context.Context) error {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	exists, err := sc.client.BucketExists(ctx, sc.bucketName)
	if err != nil {
		return err
	}

	if !exists {
		return client.ErrNotExist
	}

	return nil
}

// Close is part of the lifecycle behaviour and gets called when the client is unregistered.
func (sc *S3Client) Close(ctx context.Context) error {
	return nil
}

// OpenReader opens an independent positional reader for the object at key.
// The bufferSize hint has no effect; every read is an individual ranged
// request.
func (sc *S3Client) OpenReader(ctx context.Context, key string, bufferSize int) (client.Reader, error) {
	// Resolve the object up front so a missing key fails at open, not on
	// the first read.
	if _, err := sc.Stat(ctx, key); err != nil {
		return nil, err
	}

	return &s3Reader{client: sc, key: key}, nil
}

// Stat returns the byte length of the object at key.
func (sc *S3Client) Stat(ctx context.Context, key string) (int64, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	objInfo, err := sc.client.StatObject(ctx, sc.bucketName, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return 0, client.ErrNotExist
		}
		return 0, err
	}

	return objInfo.Size, nil
}

// Exists reports whether an object is present at key.
func (sc *S3Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := sc.Stat(ctx, key)
	if err == client.ErrNotExist {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

type s3Reader struct {
	mu     sync.Mutex
	client *S3Client
	key    string
	closed bool
}

// ReadAt issues one ranged GetObject for p at off. A range starting past
// the end of the object maps to io.EOF.
func (sr *s3Reader) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	sr.mu.Lock()
	if sr.closed {
		sr.mu.Unlock()
		return 0, client.ErrClosed
	}
	sr.mu.Unlock()

	if len(p) == 0 {
		return 0, nil
	}

	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(off, off+int64(len(p))-1); err != nil {
		return 0, client.ErrInvalid
	}

	object, err := sr.client.client.GetObject(ctx, sr.client.bucketName, sr.key, opts)
	if err != nil {
		return 0, sr.mapError(err)
	}
	defer object.Close()

	n, err := io.ReadFull(object, p)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return n, io.EOF
	}
	if err != nil {
		return n, sr.mapError(err)
	}

	return n, nil
}

func (sr *s3Reader) Close() error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	if sr.closed {
		return client.ErrClosed
	}

	sr.closed = true
	return nil
}

func (sr *s3Reader) mapError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey":
		return client.ErrNotExist
	case "InvalidRange":
		return io.EOF
	default:
		return err
	}
}
