package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dukerupert/esans/internal"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStorage runs the contract every backend must satisfy.
func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()
	key := "esans:cart:session-1"

	_, err := s.Get(ctx, key)
	assert.True(t, IsNotFound(err), "missing key should be not found, got %v", err)

	require.NoError(t, s.Put(ctx, key, []byte(`[{"id":"a"}]`)))
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, string(got))

	require.NoError(t, s.Put(ctx, key, []byte(`[]`)))
	got, err = s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got), "put replaces the previous value")

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Get(ctx, key)
	assert.True(t, IsNotFound(err))

	assert.NoError(t, s.Delete(ctx, key), "deleting a missing key is not an error")
}

func TestMemoryStorage(t *testing.T) {
	s := NewMemoryStorage()
	exerciseStorage(t, s)
	assert.Zero(t, s.Len())
}

func TestMemoryStorage_CopiesValues(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	value := []byte("abc")

	require.NoError(t, s.Put(ctx, "k", value))
	value[0] = 'x'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestLocalStorage(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)

	exerciseStorage(t, s)
}

func TestLocalStorage_LayoutAndKeyValidation(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "esans:cart:abc", []byte("[]")))
	_, err = os.Stat(filepath.Join(dir, "esans", "cart", "abc.json"))
	assert.NoError(t, err, "colon segments become directories")

	for _, bad := range []string{"", "esans::cart", "esans:..:x", "esans:a/b", `esans:a\b`} {
		err := s.Put(ctx, bad, []byte("x"))
		assert.Error(t, err, "key %q should be rejected", bad)
		assert.False(t, IsNotFound(err))
	}
}

func TestRedisStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStorage(client, time.Hour)
	defer s.Close()

	exerciseStorage(t, s)
}

func TestRedisStorage_AppliesTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStorage(client, 2*time.Hour)
	defer s.Close()

	require.NoError(t, s.Put(context.Background(), "esans:cart:x", []byte("[]")))
	assert.Equal(t, 2*time.Hour, mr.TTL("esans:cart:x"))

	mr.FastForward(3 * time.Hour)
	_, err := s.Get(context.Background(), "esans:cart:x")
	assert.True(t, IsNotFound(err), "expired cart reads as missing")
}

func TestRedisStorage_BackendFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStorage(client, 0)
	defer s.Close()

	mr.SetError("READONLY")
	_, err := s.Get(context.Background(), "k")
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
}

// fakeObjects is an in-memory stand-in for the S3 API.
type fakeObjects struct {
	objects map[string][]byte
	failPut error
}

func (f *fakeObjects) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	v, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(v))}, nil
}

func (f *fakeObjects) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.failPut != nil {
		return nil, f.failPut
	}
	data, _ := io.ReadAll(in.Body)
	f.objects[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestR2Storage(t *testing.T) {
	fake := &fakeObjects{objects: map[string][]byte{}}
	s := &R2Storage{client: fake, bucket: "carts"}

	exerciseStorage(t, s)

	require.NoError(t, s.Put(context.Background(), "esans:cart:y", []byte("[]")))
	assert.Contains(t, fake.objects, "esans:cart:y.json")

	fake.failPut = errors.New("503 slow down")
	err := s.Put(context.Background(), "esans:cart:y", []byte("[]"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503 slow down")
}

func TestNewR2Storage_RequiresConfig(t *testing.T) {
	_, err := NewR2Storage(R2Config{})
	assert.ErrorIs(t, err, ErrR2AccountIDRequired)

	_, err = NewR2Storage(R2Config{AccountID: "acc"})
	assert.ErrorIs(t, err, ErrR2CredentialsRequired)

	_, err = NewR2Storage(R2Config{AccountID: "acc", AccessKeyID: "id", SecretKey: "secret"})
	assert.ErrorIs(t, err, ErrR2BucketRequired)
}

func TestNewStorage(t *testing.T) {
	dir := t.TempDir()

	s, err := NewStorage(internal.StorageConfig{Provider: "local", LocalPath: dir})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)

	s, err = NewStorage(internal.StorageConfig{Provider: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStorage{}, s)

	mr := miniredis.RunT(t)
	s, err = NewStorage(internal.StorageConfig{Provider: "redis", RedisURL: "redis://" + mr.Addr() + "/0", CartTTLHours: 1})
	require.NoError(t, err)
	assert.IsType(t, &RedisStorage{}, s)

	_, err = NewStorage(internal.StorageConfig{Provider: "redis", RedisURL: "::not a url"})
	assert.Error(t, err)

	_, err = NewStorage(internal.StorageConfig{Provider: "ftp"})
	assert.Error(t, err)
}
