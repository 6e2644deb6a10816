package storage_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"vault-inventory/core/storage"
	"vault-inventory/core/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestNewClient(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:  "localhost:9000",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			Bucket:    "inventory",
			Region:    "us-east-1",
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("EndpointWithHTTPS", func(t *testing.T) {
		cfg := storage.Config{
			Endpoint:  "https://s3.amazonaws.com",
			AccessKey: "testkey",
			SecretKey: "testsecret",
			UseSSL:    true,
			Region:    "us-east-1",
		}

		client, err := storage.NewClient(cfg)
		assert.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestReadObject(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("GetObject", mock.Anything, "inventory", "imports/a.json", mock.Anything).
			Return(io.NopCloser(bytes.NewReader([]byte(`[1,2,3]`))), nil)

		data, err := storage.ReadObject(context.Background(), mockClient, "inventory", "imports/a.json", 1024)
		assert.NoError(t, err)
		assert.Equal(t, `[1,2,3]`, string(data))
	})

	t.Run("TooLarge", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("GetObject", mock.Anything, "inventory", "imports/big.json", mock.Anything).
			Return(io.NopCloser(bytes.NewReader(bytes.Repeat([]byte("a"), 64))), nil)

		_, err := storage.ReadObject(context.Background(), mockClient, "inventory", "imports/big.json", 16)
		assert.Error(t, err)
	})

	t.Run("GetError", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("GetObject", mock.Anything, "inventory", "missing", mock.Anything).
			Return(nil, errors.New("no such key"))

		_, err := storage.ReadObject(context.Background(), mockClient, "inventory", "missing", 16)
		assert.Error(t, err)
	})
}

func TestEnsureBucket(t *testing.T) {
	t.Run("Exists", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "inventory").Return(true, nil)

		assert.NoError(t, storage.EnsureBucket(context.Background(), mockClient, "inventory", ""))
		mockClient.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Creates", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "inventory").Return(false, nil)
		mockClient.On("MakeBucket", mock.Anything, "inventory", mock.Anything).Return(nil)

		assert.NoError(t, storage.EnsureBucket(context.Background(), mockClient, "inventory", ""))
		mockClient.AssertExpectations(t)
	})
}
