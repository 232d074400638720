package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

var cacheBucket = []byte("llm_responses")

// CachingClient decorates an LLMClient with a persistent response cache.
// Identical requests replay the stored completion, which keeps reruns of
// the extraction pipeline cheap and deterministic. Requests flagged
// DisableCache pass straight through and are not stored.
type CachingClient struct {
	inner  ports.LLMClient
	db     *bbolt.DB
	logger *zap.Logger
}

// NewCachingClient opens (or creates) the cache file and wraps the inner
// client. Close releases the file.
func NewCachingClient(inner ports.LLMClient, path string, logger *zap.Logger) (*CachingClient, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, pkgerrors.NewUnavailable("open llm cache", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(cacheBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, pkgerrors.NewUnavailable("create llm cache bucket", err)
	}
	return &CachingClient{inner: inner, db: db, logger: logger}, nil
}

var _ ports.LLMClient = (*CachingClient)(nil)

// Close releases the cache file
func (c *CachingClient) Close() error {
	return c.db.Close()
}

// cacheKey hashes every request field that affects the completion
func cacheKey(req ports.GenerateRequest) []byte {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%d\x00%g", req.Model, req.System, req.Prompt, req.MaxTokens, req.Temperature)
	sum := h.Sum(nil)
	return []byte(hex.EncodeToString(sum))
}

// Generate returns the cached completion when one exists, otherwise calls
// through and stores the result. Cache failures degrade to a live call.
func (c *CachingClient) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	if req.DisableCache {
		return c.inner.Generate(ctx, req)
	}

	key := cacheKey(req)
	var cached string
	err := c.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(cacheBucket).Get(key); v != nil {
			cached = string(v)
		}
		return nil
	})
	if err == nil && cached != "" {
		return cached, nil
	}
	if err != nil {
		c.logger.Warn("llm cache read failed", zap.Error(err))
	}

	response, err := c.inner.Generate(ctx, req)
	if err != nil {
		return "", err
	}

	if err := c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(cacheBucket).Put(key, []byte(response))
	}); err != nil {
		c.logger.Warn("llm cache write failed", zap.Error(err))
	}
	return response, nil
}
