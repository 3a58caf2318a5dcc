package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/andrewhigh08/access-service/internal/domain"
	"github.com/andrewhigh08/access-service/internal/pkg/apperror"
	"github.com/andrewhigh08/access-service/internal/pkg/logger"
	"github.com/andrewhigh08/access-service/internal/port"
	"gorm.io/gorm"
)

// errRotationRaced signals that the compare-and-set revocation of the old
// refresh token updated zero rows: a concurrent rotation or revocation won.
// errRotationRaced сигнализирует, что compare-and-set отзыв старого
// refresh-токена обновил ноль строк: победила конкурентная ротация или отзыв.
var errRotationRaced = errors.New("refresh token rotation raced")

// LockoutConfig controls the login lockout counters.
// LockoutConfig управляет счётчиками блокировки входа.
type LockoutConfig struct {
	MaxAttempts int           // Failed attempts before lockout / Неудачных попыток до блокировки
	Duration    time.Duration // Lockout window / Окно блокировки
}

// AuthService implements port.AuthService: password login, refresh token
// rotation with reuse (theft) detection, and logout.
//
// Security posture: every refresh failure mode — unknown token, revoked
// token, expired token, lost rotation race — surfaces to the caller as the
// same generic unauthorized error. The distinction lives only in the audit
// trail and logs, and the token value itself is never logged.
//
// AuthService реализует port.AuthService: вход по паролю, ротацию
// refresh-токенов с обнаружением повторного использования (кражи) и выход.
//
// Позиция безопасности: каждый вид отказа refresh — неизвестный токен,
// отозванный токен, истёкший токен, проигранная гонка ротации — возвращается
// вызывающему как одна и та же общая ошибка авторизации. Различие живёт
// только в аудит-логе и логах, а само значение токена никогда не логируется.
type AuthService struct {
	userRepo    port.UserRepository
	refreshRepo port.RefreshTokenRepository
	tokenSvc    port.TokenService
	txManager   port.Transaction
	rateLimiter port.RateLimitCache
	events      port.EventPublisher
	lockout     LockoutConfig
	refreshTTL  time.Duration
	logger      *logger.Logger
}

// NewAuthService creates a new AuthService instance.
// NewAuthService создаёт новый экземпляр AuthService.
func NewAuthService(
	userRepo port.UserRepository,
	refreshRepo port.RefreshTokenRepository,
	tokenSvc port.TokenService,
	txManager port.Transaction,
	rateLimiter port.RateLimitCache,
	events port.EventPublisher,
	lockout LockoutConfig,
	refreshTTL time.Duration,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		refreshRepo: refreshRepo,
		tokenSvc:    tokenSvc,
		txManager:   txManager,
		rateLimiter: rateLimiter,
		events:      events,
		lockout:     lockout,
		refreshTTL:  refreshTTL,
		logger:      log.WithComponent("auth_service"),
	}
}

// lockoutKey builds the per-account failed attempt counter key.
func lockoutKey(email string) string {
	return fmt.Sprintf("lockout:%s", email)
}

// Login authenticates by email and password and issues a token pair.
// Failed attempts are counted per account in the distributed rate-limit
// cache; once the threshold is reached, further attempts are rejected until
// the lockout window expires.
// Login аутентифицирует по email и паролю и выпускает пару токенов.
// Неудачные попытки считаются по учётной записи в распределённом кэше
// ограничения частоты; по достижении порога дальнейшие попытки отклоняются
// до истечения окна блокировки.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest, ipAddress, userAgent string) (*domain.TokenPair, error) {
	log := s.logger.WithContext(ctx)

	// Check lockout before touching the password hash.
	// Проверяем блокировку до обращения к хэшу пароля.
	attempts, err := s.rateLimiter.Get(ctx, lockoutKey(req.Email))
	if err != nil {
		// Cache trouble must not lock everyone out.
		// Проблемы кэша не должны блокировать всех.
		log.Warn("lockout counter unavailable", "error", err)
	} else if attempts >= int64(s.lockout.MaxAttempts) {
		log.LogAuthAttempt(req.Email, false, "account locked")
		return nil, apperror.TooManyRequests("too many failed login attempts, try again later", int(s.lockout.Duration.Seconds()))
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if isNotFound(err) {
			s.recordFailedAttempt(ctx, req.Email, "unknown email")
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, err
	}

	if !user.IsActive {
		log.LogAuthAttempt(req.Email, false, "account inactive")
		return nil, apperror.Unauthorized("invalid email or password")
	}
	if !user.HasPassword() {
		// OAuth-only account: password login is not an available method.
		// OAuth-only аккаунт: вход по паролю недоступен.
		log.LogAuthAttempt(req.Email, false, "no password set")
		return nil, apperror.Unauthorized("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.recordFailedAttempt(ctx, req.Email, "wrong password")
		return nil, apperror.Unauthorized("invalid email or password")
	}

	// Successful login clears the failure counter.
	// Успешный вход сбрасывает счётчик неудач.
	if err := s.rateLimiter.Reset(ctx, lockoutKey(req.Email)); err != nil {
		log.Warn("failed to reset lockout counter", "error", err)
	}

	pair, err := s.issueTokenPair(ctx, user, ipAddress, userAgent)
	if err != nil {
		return nil, err
	}

	log.LogAuthAttempt(req.Email, true, "")
	s.events.Publish(ctx, domain.UserLoggedInEvent{
		UserID:    user.ID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		At:        time.Now(),
	})

	return pair, nil
}

// recordFailedAttempt bumps the per-account counter and logs the attempt.
// recordFailedAttempt увеличивает счётчик по учётной записи и логирует попытку.
func (s *AuthService) recordFailedAttempt(ctx context.Context, email, reason string) {
	log := s.logger.WithContext(ctx)
	log.LogAuthAttempt(email, false, reason)

	if _, err := s.rateLimiter.Increment(ctx, lockoutKey(email), s.lockout.Duration); err != nil {
		log.Warn("failed to increment lockout counter", "error", err)
	}
}

// Refresh rotates a refresh token.
//
// Decision order, per presented token:
//  1. unknown value            -> generic unauthorized
//  2. known but revoked        -> reuse is a theft signal: revoke the user's
//     whole token family, audit, then generic unauthorized
//  3. expired                  -> generic unauthorized
//  4. active                   -> mint a successor carrying the caller's
//     user agent and IP, revoke the old token with a link to the successor
//     (compare-and-set inside one transaction), and issue an access token
//     with the user's CURRENT roles.
//
// Two concurrent rotations of the same token cannot both succeed: the loser
// of the compare-and-set is treated exactly like reuse of a revoked token.
//
// Refresh ротирует refresh-токен.
//
// Порядок решений по предъявленному токену:
//  1. неизвестное значение     -> общая ошибка авторизации
//  2. известен, но отозван     -> повторное использование — сигнал кражи:
//     отзываем всё семейство токенов пользователя, аудит, затем общая ошибка
//  3. истёк                    -> общая ошибка авторизации
//  4. активен                  -> выпускаем преемника с user agent и IP
//     вызывающего, отзываем старый токен со ссылкой на преемника
//     (compare-and-set внутри одной транзакции) и выдаём access-токен
//     с ТЕКУЩИМИ ролями пользователя.
//
// Две конкурентные ротации одного токена не могут пройти обе: проигравший
// compare-and-set обрабатывается ровно как повторное использование отозванного.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, ipAddress, userAgent string) (*domain.TokenPair, error) {
	log := s.logger.WithContext(ctx)

	stored, err := s.refreshRepo.FindByToken(ctx, refreshToken)
	if err != nil {
		if isNotFound(err) {
			log.Warn("refresh attempt with unknown token", "ip", ipAddress)
			return nil, apperror.Unauthorized("invalid refresh token")
		}
		return nil, err
	}

	if stored.IsRevoked() {
		return nil, s.handleTokenReuse(ctx, stored.UserID, ipAddress, userAgent)
	}

	if stored.IsExpired() {
		log.Info("refresh attempt with expired token", "user_id", stored.UserID.String())
		return nil, apperror.Unauthorized("invalid refresh token")
	}

	// Load the user fresh so the new access token carries current roles.
	// Загружаем пользователя заново, чтобы новый access-токен нёс текущие роли.
	user, err := s.userRepo.FindByID(ctx, stored.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.Unauthorized("invalid refresh token")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.Unauthorized("invalid refresh token")
	}

	successor, err := domain.NewRefreshToken(user.ID, s.refreshTTL, userAgent, ipAddress)
	if err != nil {
		return nil, apperror.Internal("failed to generate refresh token", err)
	}

	// Create the successor and revoke the predecessor atomically.
	// Создаём преемника и отзываем предшественника атомарно.
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.refreshRepo.CreateTx(ctx, tx, successor); err != nil {
			return err
		}

		rows, err := s.refreshRepo.RevokeTx(ctx, tx, stored.Token, &successor.Token)
		if err != nil {
			return err
		}
		if rows == 0 {
			return errRotationRaced
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errRotationRaced) {
			return nil, s.handleTokenReuse(ctx, stored.UserID, ipAddress, userAgent)
		}
		return nil, err
	}

	accessToken, expiresAt, err := s.tokenSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	log.Debug("refresh token rotated", "user_id", user.ID.String())
	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: successor.Token,
		ExpiresIn:    int64(time.Until(expiresAt).Seconds()),
	}, nil
}

// handleTokenReuse revokes the user's whole token family, records the
// security incident, and returns the same generic unauthorized error the
// caller would see for any other refresh failure.
// handleTokenReuse отзывает всё семейство токенов пользователя, фиксирует
// инцидент безопасности и возвращает ту же общую ошибку авторизации, которую
// вызывающий увидел бы при любом другом отказе refresh.
func (s *AuthService) handleTokenReuse(ctx context.Context, userID uuid.UUID, ipAddress, userAgent string) error {
	log := s.logger.WithContext(ctx)
	log.Warn("revoked refresh token reused, revoking token family",
		"user_id", userID.String(),
		"ip", ipAddress,
	)

	if err := s.refreshRepo.RevokeAllForUser(ctx, userID); err != nil {
		log.Error("failed to revoke token family", "user_id", userID.String(), "error", err)
	}

	s.events.Publish(ctx, domain.TokenReuseDetectedEvent{
		UserID:    userID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		At:        time.Now(),
	})

	return apperror.Unauthorized("invalid refresh token")
}

// Logout revokes a single refresh token. Idempotent and non-leaking: an
// unknown or already revoked token succeeds, revealing nothing about whether
// the value ever existed.
// Logout отзывает один refresh-токен. Идемпотентен и не раскрывает
// информацию: неизвестный или уже отозванный токен завершается успехом, не
// сообщая, существовало ли значение вообще.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	stored, err := s.refreshRepo.FindByToken(ctx, refreshToken)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	if stored.IsRevoked() {
		return nil
	}

	// Compare-and-set: losing to a concurrent revocation is still success.
	// Compare-and-set: проигрыш конкурентному отзыву — всё равно успех.
	if _, err := s.refreshRepo.Revoke(ctx, stored.Token, nil); err != nil {
		return err
	}

	s.events.Publish(ctx, domain.UserLoggedOutEvent{UserID: stored.UserID, At: time.Now()})
	return nil
}

// LogoutAll revokes every active refresh token of the user.
// LogoutAll отзывает все активные refresh-токены пользователя.
func (s *AuthService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.refreshRepo.RevokeAllForUser(ctx, userID); err != nil {
		return err
	}

	s.events.Publish(ctx, domain.UserLoggedOutEvent{UserID: userID, AllDevices: true, At: time.Now()})
	return nil
}

// issueTokenPair mints an access token and a fresh refresh token.
// issueTokenPair выпускает access-токен и новый refresh-токен.
func (s *AuthService) issueTokenPair(ctx context.Context, user *domain.User, ipAddress, userAgent string) (*domain.TokenPair, error) {
	accessToken, expiresAt, err := s.tokenSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := domain.NewRefreshToken(user.ID, s.refreshTTL, userAgent, ipAddress)
	if err != nil {
		return nil, apperror.Internal("failed to generate refresh token", err)
	}

	if err := s.refreshRepo.Create(ctx, refreshToken); err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken.Token,
		ExpiresIn:    int64(time.Until(expiresAt).Seconds()),
	}, nil
}

// isNotFound reports whether err is the repository not-found error.
func isNotFound(err error) bool {
	appErr, ok := apperror.AsAppError(err)
	return ok && appErr.Code == apperror.CodeNotFound
}

// Ensure interface compliance. / Проверка соответствия интерфейсу.
var _ port.AuthService = (*AuthService)(nil)
