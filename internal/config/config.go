package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort    string
	MySQLDSN      string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	SessionSecret string
	SessionTTL    time.Duration
	SwaggerHost   string
	LogLevel      string
	Environment   string

	Gallery Gallery
	Groups  Groups
}

// Gallery describes the on-disk layout and image limits of the site.
type Gallery struct {
	SiteURL         string
	SiteDir         string
	AvatarFolder    string
	GalleryFolder   string
	ThumbnailFolder string
	TempPhotoW      int
	TempPhotoH      int
	// MemoryLimit is the process memory ceiling in bytes used for resize budgeting.
	MemoryLimit   int64
	DefaultAvatar string
	NoPhotoFile   string
}

// Groups carries the well-known group ids and the soft-delete policy.
type Groups struct {
	GuestID             uint
	AdminID             uint
	DefaultID           uint
	ProtectedIDs        map[uint]struct{}
	SoftDeleteRetention time.Duration
}

// IsProtected reports whether the group id may never be deleted.
func (g Groups) IsProtected(id uint) bool {
	_, ok := g.ProtectedIDs[id]
	return ok
}

// Load builds Config from environment with sensible defaults.
func Load() *Config {
	siteDir := getEnv("SITE_DIR", "/var/www/gallery")
	return &Config{
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		MySQLDSN:      getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/gallery?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPass:     os.Getenv("REDIS_PASSWORD"),
		SessionSecret: getEnv("SESSION_SECRET", "change-me"),
		SessionTTL:    getEnvDuration("SESSION_TTL", 24*time.Hour),
		SwaggerHost:   os.Getenv("SWAGGER_HOST"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Environment:   getEnv("APP_ENV", "development"),
		Gallery: Gallery{
			SiteURL:         strings.TrimRight(getEnv("SITE_URL", "http://localhost:8080"), "/") + "/",
			SiteDir:         siteDir,
			AvatarFolder:    getEnv("AVATAR_FOLDER", "avatar"),
			GalleryFolder:   getEnv("GALLERY_FOLDER", "gallery"),
			ThumbnailFolder: getEnv("THUMBNAIL_FOLDER", "thumbnail"),
			TempPhotoW:      getEnvInt("TEMP_PHOTO_W", 800),
			TempPhotoH:      getEnvInt("TEMP_PHOTO_H", 600),
			MemoryLimit:     int64(getEnvInt("MEMORY_LIMIT_MB", 128)) << 20,
			DefaultAvatar:   getEnv("DEFAULT_AVATAR", "no_avatar.jpg"),
			NoPhotoFile:     getEnv("NO_PHOTO_FILE", "no_foto.png"),
		},
		Groups: Groups{
			GuestID:             uint(getEnvInt("GUEST_GROUP_ID", 1)),
			DefaultID:           uint(getEnvInt("DEFAULT_GROUP_ID", 2)),
			AdminID:             uint(getEnvInt("ADMIN_GROUP_ID", 3)),
			ProtectedIDs:        getEnvIntSet("PROTECTED_GROUP_IDS", []uint{1, 2, 3}),
			SoftDeleteRetention: getEnvDuration("SOFT_DELETE_RETENTION", 30*24*time.Hour),
		},
	}
}

// GalleryDir is the absolute directory holding full-size photos.
func (g Gallery) GalleryDir() string {
	return filepath.Join(g.SiteDir, g.GalleryFolder)
}

// ThumbnailDir is the absolute directory holding generated thumbnails.
func (g Gallery) ThumbnailDir() string {
	return filepath.Join(g.SiteDir, g.ThumbnailFolder)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}

// getEnvIntSet parses a comma separated list of ids, skipping malformed entries.
func getEnvIntSet(key string, def []uint) map[uint]struct{} {
	ids := def
	if v := os.Getenv(key); v != "" {
		ids = ids[:0:0]
		for _, part := range strings.Split(v, ",") {
			parsed, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
			if err != nil {
				continue
			}
			ids = append(ids, uint(parsed))
		}
	}
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
