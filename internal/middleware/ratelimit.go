package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	WriteRate       rate.Limit    // 記事作成・編集のレート（req/sec）
	WriteBurst      int           // 記事作成・編集のバーストサイズ
	LoginRate       rate.Limit    // ログイン試行のレート（req/sec）
	LoginBurst      int           // ログイン試行のバーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// NewRateLimiterConfig は1分あたりのリクエスト数からレート制限設定を生成する。
func NewRateLimiterConfig(writePerMinute, loginPerMinute int) RateLimiterConfig {
	return RateLimiterConfig{
		WriteRate:       rate.Limit(float64(writePerMinute) / 60.0),
		WriteBurst:      writePerMinute,
		LoginRate:       rate.Limit(float64(loginPerMinute) / 60.0),
		LoginBurst:      loginPerMinute,
		CleanupInterval: 5 * time.Minute,
	}
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// 記事作成・編集 30 req/min/user、ログイン 10 req/min/IP
func DefaultRateLimiterConfig() RateLimiterConfig {
	return NewRateLimiterConfig(30, 10)
}

// keyLimiter はキーごとのレートリミッターとアクセス時刻を保持する。
type keyLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// limiterSet はキー（ユーザーIDやIPアドレス）ごとのリミッターの集合。
type limiterSet struct {
	mu       sync.RWMutex
	limiters map[string]*keyLimiter
	rate     rate.Limit
	burst    int
}

func newLimiterSet(r rate.Limit, burst int) *limiterSet {
	return &limiterSet{
		limiters: make(map[string]*keyLimiter),
		rate:     r,
		burst:    burst,
	}
}

// get はキーのリミッターを取得または作成する。
func (s *limiterSet) get(key string) *rate.Limiter {
	s.mu.RLock()
	kl, exists := s.limiters[key]
	s.mu.RUnlock()

	if exists {
		s.mu.Lock()
		kl.lastAccess = time.Now()
		s.mu.Unlock()
		return kl.limiter
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// ダブルチェック
	if kl, exists := s.limiters[key]; exists {
		kl.lastAccess = time.Now()
		return kl.limiter
	}

	limiter := rate.NewLimiter(s.rate, s.burst)
	s.limiters[key] = &keyLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

func (s *limiterSet) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.limiters)
}

// prune は最終アクセス時刻がttlを超えたエントリを削除する。
func (s *limiterSet) prune(now time.Time, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, kl := range s.limiters {
		if now.Sub(kl.lastAccess) > ttl {
			delete(s.limiters, key)
		}
	}
}

// RateLimiter はキーごとのレート制限を管理する。
// 記事の書き込み（ユーザー単位）とログイン試行（IP単位）の2種類を提供する。
// どちらも状態変更メソッドのみを制限し、フォームの表示は制限しない。
type RateLimiter struct {
	config RateLimiterConfig
	write  *limiterSet
	login  *limiterSet
	stopCh chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config: config,
		write:  newLimiterSet(config.WriteRate, config.WriteBurst),
		login:  newLimiterSet(config.LoginRate, config.LoginBurst),
		stopCh: make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// WriteMiddleware は記事作成・編集のレート制限ミドルウェアを返す。
// ログインユーザー単位で制限する（RequireLoginの後に配置）。
func (rl *RateLimiter) WriteMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware(rl.write, "write", func(r *http.Request) string {
		if userID, err := UserIDFromContext(r.Context()); err == nil {
			return "user:" + userID
		}
		return "ip:" + clientIP(r)
	})
}

// LoginMiddleware はログイン試行のレート制限ミドルウェアを返す。
// クライアントIP単位で制限する。
func (rl *RateLimiter) LoginMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware(rl.login, "login", clientIP)
}

func (rl *RateLimiter) middleware(set *limiterSet, limitType string, keyFn func(*http.Request) string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			key := keyFn(r)
			if !set.get(key).Allow() {
				writeRateLimitResponse(w, set.rate)
				slog.Warn("rate limit exceeded",
					slog.String("key", key),
					slog.String("limit_type", limitType),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WriteLimiterCount は現在管理されている書き込みリミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) WriteLimiterCount() int {
	return rl.write.count()
}

// LoginLimiterCount は現在管理されているログインリミッターのエントリ数を返す。
func (rl *RateLimiter) LoginLimiterCount() int {
	return rl.login.count()
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (rl *RateLimiter) cleanup() {
	ttl := rl.config.CleanupInterval * 2
	now := time.Now()
	rl.write.prune(now, ttl)
	rl.login.prune(now, ttl)
}

// clientIP は接続元のIPアドレスを返す。
// X-Forwarded-For等のヘッダーはクライアントが自由に設定できるため参照しない。
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはトークンが補充されるまでの推定秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	retryAfterSec := 1
	if r > 0 {
		retryAfterSec = int(math.Ceil(1.0 / float64(r)))
	}
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	http.Error(w, "リクエストが多すぎます。しばらく待ってから再度お試しください。", http.StatusTooManyRequests)
}
