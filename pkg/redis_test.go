package pkg

import (
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/paperlords/admin-service/internal/config"
)

func TestNewRedisClient(t *testing.T) {
	client, err := NewRedisClient(&config.Config{})
	if err != nil || client != nil {
		t.Fatalf("empty URL = (%v, %v), want (nil, nil)", client, err)
	}

	if _, err := NewRedisClient(&config.Config{RedisURL: "not a url"}); err == nil {
		t.Error("malformed URL should fail")
	}

	mr := miniredis.RunT(t)
	client, err = NewRedisClient(&config.Config{RedisURL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedisClient() error = %v", err)
	}
	defer client.Close()
}
