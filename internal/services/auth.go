package services

import (
  "context"
  "errors"
  "fmt"
  "time"
  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"
  "golang.org/x/crypto/bcrypt"
  "gorm.io/gorm"
  "github.com/Krisnegi/rag-knowledge-engine/internal/logger"
  "github.com/Krisnegi/rag-knowledge-engine/internal/repos"
  "github.com/Krisnegi/rag-knowledge-engine/internal/requestdata"
  "github.com/Krisnegi/rag-knowledge-engine/internal/types"
  "github.com/Krisnegi/rag-knowledge-engine/internal/utils"
)

type AuthService interface {
  RegisterUser(ctx context.Context, email, password string) (uuid.UUID, error)
  LoginUser(ctx context.Context, email, password string) (string, error)
  LogoutUser(ctx context.Context) error
  SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
  GetAccessTTL() time.Duration
}

type authService struct {
  db            *gorm.DB
  log           *logger.Logger
  userRepo      repos.UserRepo
  userTokenRepo repos.UserTokenRepo
  jwtSecretKey  string
  accessTTL     time.Duration
}

func NewAuthService(
  db *gorm.DB,
  baseLog *logger.Logger,
  userRepo repos.UserRepo,
  userTokenRepo repos.UserTokenRepo,
  jwtSecretKey string,
  accessTTL time.Duration,
) AuthService {
  return &authService{
    db:            db,
    log:           baseLog.With("service", "AuthService"),
    userRepo:      userRepo,
    userTokenRepo: userTokenRepo,
    jwtSecretKey:  jwtSecretKey,
    accessTTL:     accessTTL,
  }
}

func (as *authService) RegisterUser(ctx context.Context, email, password string) (uuid.UUID, error) {
  email = utils.NormalizeEmail(email)
  if err := utils.ValidateEmail(email); err != nil {
    return uuid.Nil, &ValidationError{Err: err}
  }
  if err := utils.ValidatePassword(password); err != nil {
    return uuid.Nil, &ValidationError{Err: err}
  }

  // Pre-check read before the state-changing write; the unique index on
  // email still backstops concurrent signups.
  exists, err := as.userRepo.EmailExists(ctx, nil, email)
  if err != nil {
    return uuid.Nil, fmt.Errorf("failed to check existing email: %w", err)
  }
  if exists {
    return uuid.Nil, &ConflictError{Err: fmt.Errorf("email is already in use")}
  }

  hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
  if err != nil {
    return uuid.Nil, fmt.Errorf("failed to hash password: %w", err)
  }

  user := &types.User{
    ID:       uuid.New(),
    Email:    email,
    Password: string(hashed),
  }
  if _, err := as.userRepo.Create(ctx, nil, user); err != nil {
    return uuid.Nil, fmt.Errorf("failed to create user: %w", err)
  }
  as.log.Info("User registered", "user_id", user.ID)
  return user.ID, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (string, error) {
  email = utils.NormalizeEmail(email)
  if email == "" || password == "" {
    return "", &ValidationError{Err: fmt.Errorf("email and password are required")}
  }

  user, err := as.userRepo.GetByEmail(ctx, nil, email)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return "", &AuthenticationError{Err: fmt.Errorf("invalid credentials")}
    }
    return "", fmt.Errorf("failed to look up user: %w", err)
  }
  if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
    return "", &AuthenticationError{Err: fmt.Errorf("invalid credentials")}
  }

  accessToken, err := as.generateAccessToken(user)
  if err != nil {
    return "", fmt.Errorf("failed to generate access token: %w", err)
  }
  userToken := &types.UserToken{
    ID:          uuid.New(),
    UserID:      user.ID,
    AccessToken: accessToken,
    ExpiresAt:   time.Now().Add(as.accessTTL),
  }
  if _, err := as.userTokenRepo.Create(ctx, nil, userToken); err != nil {
    return "", fmt.Errorf("failed to persist user token: %w", err)
  }
  as.log.Info("User logged in", "user_id", user.ID)
  return accessToken, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.TokenString == "" {
    return &AuthenticationError{Err: fmt.Errorf("no authenticated request data in context")}
  }
  if err := as.userTokenRepo.DeleteByAccessToken(ctx, nil, rd.TokenString); err != nil {
    return fmt.Errorf("failed to delete user token: %w", err)
  }
  as.log.Info("User logged out", "user_id", rd.UserID)
  return nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
  claims := jwt.RegisteredClaims{
    Subject:   user.ID.String(),
    ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
    IssuedAt:  jwt.NewNumericDate(time.Now()),
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  if tokenString == "" {
    return ctx, &AuthenticationError{Err: fmt.Errorf("missing token")}
  }
  parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
    if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
      return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
    }
    return []byte(as.jwtSecretKey), nil
  })
  if err != nil {
    return ctx, &AuthenticationError{Err: fmt.Errorf("failed to parse token: %w", err)}
  }
  claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
  if !ok || !parsed.Valid {
    return ctx, &AuthenticationError{Err: fmt.Errorf("invalid or expired token")}
  }
  userID, err := uuid.Parse(claims.Subject)
  if err != nil {
    return ctx, &AuthenticationError{Err: fmt.Errorf("invalid subject in token: %w", err)}
  }
  // A signature-valid token is not enough: the row written at login must
  // still exist, so logout actually revokes access.
  userToken, err := as.userTokenRepo.GetByAccessToken(ctx, nil, tokenString)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return ctx, &AuthenticationError{Err: fmt.Errorf("token has been revoked")}
    }
    return ctx, fmt.Errorf("failed to look up token: %w", err)
  }
  if userToken.ExpiresAt.Before(time.Now()) {
    return ctx, &AuthenticationError{Err: fmt.Errorf("token expired")}
  }
  rd := &requestdata.RequestData{
    TokenString: tokenString,
    UserID:      userID,
  }
  return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
  return as.accessTTL
}
