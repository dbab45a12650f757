package cache

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/pierrec/lz4/v4"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"daybreak/pkg/logger"
)

type CacheImpl struct {
	redisClient *redis.Client
}

func NewCache(redisClient *redis.Client) *CacheImpl {
	return &CacheImpl{redisClient: redisClient}
}

func (c *CacheImpl) Ping(ctx context.Context) error {
	_, err := c.redisClient.Ping(ctx).Result()
	if err != nil {
		return err
	}

	return nil
}

type Options struct {
	Compress   bool
	Expiration time.Duration
}

// compressedFlag / rawFlag prefix every stored value with one byte so Get
// doesn't need its own Options to know whether to run lz4 first.
const (
	rawFlag        byte = 0
	compressedFlag byte = 1
)

func (c *CacheImpl) Set(ctx context.Context, key string, data interface{}, options Options) (bool, error) {
	serializedData, err := msgpack.Marshal(&data)
	if err != nil {
		logger.Errorf("Failed for marshaling data: %v", err)
		return false, err
	}

	flag := rawFlag
	if options.Compress {
		serializedData, err = CompressData(serializedData)
		if err != nil {
			logger.Errorf("Failed for compress data: %v", err)
			return false, err
		}
		flag = compressedFlag
	}

	payload := append([]byte{flag}, serializedData...)
	if err := c.redisClient.Set(ctx, key, payload, options.Expiration).Err(); err != nil {
		logger.Errorf("Failed save data on Redis: %s # err %s", key, err)
		return false, nil
	}

	return true, nil
}

func (c *CacheImpl) Get(ctx context.Context, key string, data interface{}) (interface{}, error) {
	payload, err := c.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logger.Errorf("Failed get data from Redis:  %v", err)
		return nil, err
	}

	serializedData, err := unwrapPayload(payload)
	if err != nil {
		logger.Errorf("Failed for decompress data:  %v", err)
		return nil, err
	}

	if err := msgpack.Unmarshal(serializedData, data); err != nil {
		logger.Errorf("Failed for unMarshaling data:  %v", err)
		return nil, err
	}

	return data, nil
}

func (c *CacheImpl) Delete(ctx context.Context, key string) (bool, error) {
	_, err := c.redisClient.Del(ctx, key).Result()
	if err != nil {
		logger.Errorf("Failed for delete data on redis:  %v", err)
		return false, err
	}

	return true, nil
}

func unwrapPayload(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return payload, nil
	}
	flag, body := payload[0], payload[1:]
	if flag != compressedFlag {
		return body, nil
	}
	return DecompressData(body)
}

// CompressData frames body with lz4's streaming format.
func CompressData(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecompressData(body []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(body))
	return io.ReadAll(r)
}
