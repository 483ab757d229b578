package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CacheConfig represents cache control configuration
type CacheConfig struct {
	MaxAge    int
	NoStore   bool
	Immutable bool
}

// StaticCacheConfig fits uploaded images: names are unique and files are never
// rewritten.
func StaticCacheConfig() CacheConfig {
	return CacheConfig{
		MaxAge:    86400 * 30,
		Immutable: true,
	}
}

// NoStoreConfig is for API responses that must always be fresh.
func NoStoreConfig() CacheConfig {
	return CacheConfig{NoStore: true}
}

func (c CacheConfig) header() string {
	if c.NoStore {
		return "no-store"
	}

	directives := []string{"public"}
	if c.MaxAge > 0 {
		directives = append(directives, "max-age="+strconv.Itoa(c.MaxAge))
	}
	if c.Immutable {
		directives = append(directives, "immutable")
	}
	return strings.Join(directives, ", ")
}

// Cache sets Cache-Control on responses
func Cache(config CacheConfig) gin.HandlerFunc {
	value := config.header()

	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}
