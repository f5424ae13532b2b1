package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/escape-finder/api-go/config"
	"github.com/escape-finder/api-go/metrics"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache groups. Keys are "<prefix>:<group>:<sha1>" so a group can be purged
// when its data changes.
const (
	CacheRooms     = "rooms"
	CacheLocations = "locations"
	CacheThemes    = "themes"
	CacheBlog      = "blog"
	CacheSitemap   = "sitemap"
)

// RoomGroups are the cache groups that list or aggregate rooms.
var RoomGroups = []string{CacheRooms, CacheLocations, CacheThemes, CacheSitemap}

type ResponseCache struct {
	cfg     config.CacheConfig
	rdb     *redis.Client
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client, m *metrics.Metrics, log *zap.Logger) *ResponseCache {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "cache"
	}
	return &ResponseCache{cfg: cfg, rdb: rdb, metrics: m, log: log}
}

func (rc *ResponseCache) enabled() bool {
	return rc != nil && rc.cfg.Enabled && rc.rdb != nil
}

// captureWriter tees the body into buf up to limit bytes.
type captureWriter struct {
	gin.ResponseWriter
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	cw.capture(b)
	return cw.ResponseWriter.Write(b)
}

func (cw *captureWriter) WriteString(s string) (int, error) {
	cw.capture([]byte(s))
	return cw.ResponseWriter.WriteString(s)
}

func (cw *captureWriter) capture(b []byte) {
	if cw.truncated {
		return
	}
	if cw.limit > 0 && cw.buf.Len()+len(b) > cw.limit {
		cw.truncated = true
		return
	}
	cw.buf.Write(b)
}

// Handler caches successful GET responses of the wrapped routes under group.
// Authenticated requests bypass the cache.
func (rc *ResponseCache) Handler(group string) gin.HandlerFunc {
	if !rc.enabled() {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || c.GetHeader("Authorization") != "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := rc.key(group, c.FullPath(), c.Request.URL.Path, c.Request.URL.RawQuery)

		if bs, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
			if status, hdr, body, ok := decodePayload(bs); ok {
				for k, vals := range hdr {
					if strings.EqualFold(k, "Content-Length") {
						continue
					}
					for _, v := range vals {
						c.Writer.Header().Add(k, v)
					}
				}
				c.Writer.Header().Set("X-Cache", "HIT")
				rc.metrics.Cache("hit")
				c.Status(status)
				_, _ = c.Writer.Write(body)
				c.Abort()
				return
			}
		}

		rc.metrics.Cache("miss")
		cw := &captureWriter{ResponseWriter: c.Writer, limit: rc.cfg.MaxBodyBytes}
		c.Writer = cw
		c.Header("X-Cache", "MISS")
		c.Next()

		if cw.Status() != http.StatusOK || cw.truncated {
			return
		}
		hdr := cw.Header().Clone()
		hdr.Del("X-Cache")
		payload, err := encodePayload(cw.Status(), hdr, cw.buf.Bytes())
		if err != nil {
			return
		}
		if err := rc.rdb.SetEx(context.WithoutCancel(ctx), key, payload, rc.cfg.TTL).Err(); err != nil {
			rc.log.Warn("cache store failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// Purge deletes every cached response in the given groups and returns the
// number of keys removed.
func (rc *ResponseCache) Purge(ctx context.Context, groups ...string) (int, error) {
	const op = "middleware.ResponseCache.Purge"
	if !rc.enabled() {
		return 0, nil
	}
	removed := 0
	for _, g := range groups {
		iter := rc.rdb.Scan(ctx, 0, rc.cfg.Prefix+":"+g+":*", 200).Iterator()
		var batch []string
		for iter.Next(ctx) {
			batch = append(batch, iter.Val())
			if len(batch) == 200 {
				n, err := rc.rdb.Del(ctx, batch...).Result()
				if err != nil {
					return removed, fmt.Errorf("%s: %w", op, err)
				}
				removed += int(n)
				batch = batch[:0]
			}
		}
		if err := iter.Err(); err != nil {
			return removed, fmt.Errorf("%s: %w", op, err)
		}
		if len(batch) > 0 {
			n, err := rc.rdb.Del(ctx, batch...).Result()
			if err != nil {
				return removed, fmt.Errorf("%s: %w", op, err)
			}
			removed += int(n)
		}
	}
	return removed, nil
}

func (rc *ResponseCache) key(group, route, path, query string) string {
	sum := sha1.Sum([]byte(route + "\x00" + path + "\x00" + query))
	return fmt.Sprintf("%s:%s:%x", rc.cfg.Prefix, group, sum[:])
}

// encodePayload packs [4 bytes status][4 bytes header length][header JSON][body].
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}
