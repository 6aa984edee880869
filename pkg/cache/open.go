package cache

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
)

// Open returns the backend named by rawURL:
//
//	none | ""            NullCache
//	file:///path         FileCache at path ("file://" alone uses DefaultDir)
//	badger:///path       BadgerCache at path ("badger://" alone is in memory)
//	redis://host/db      RedisCache (also rediss://)
//	mongodb://host/db    MongoCache (also mongodb+srv://)
//
// A bare path opens a FileCache. Remote backends are dialled with
// [RetryWithBackoff].
func Open(ctx context.Context, rawURL string) (Cache, error) {
	if rawURL == "" || rawURL == "none" {
		return NewNullCache(), nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse cache url: %w", err)
	}
	switch u.Scheme {
	case "":
		return NewFileCache(filepath.Clean(rawURL))
	case "file":
		dir := u.Path
		if dir == "" {
			dir = DefaultDir()
		}
		return NewFileCache(dir)
	case "badger":
		return NewBadgerCache(u.Path)
	case "redis", "rediss":
		return dial(ctx, func() (Cache, error) { return NewRedisCache(ctx, rawURL) })
	case "mongodb", "mongodb+srv":
		return dial(ctx, func() (Cache, error) { return NewMongoCache(ctx, rawURL) })
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

func dial(ctx context.Context, open func() (Cache, error)) (Cache, error) {
	var c Cache
	err := RetryWithBackoff(ctx, func() error {
		var err error
		c, err = open()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
