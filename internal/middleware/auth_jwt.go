package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"inventory/internal/config"
	"inventory/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey       = "user_id"       // int64
	CtxUserRoleKey     = "user_role"     // model.Role
	CtxTokenVersionKey = "token_version" // int
)

// アクセストークンから復元したログイン情報
type authClaims struct {
	UserID       int64
	Role         model.Role
	TokenVersion int
}

// bearerAuth用のJWT検証ミドルウェア。
// 検証に通ったらuser_id/role/token_versionをcontextに積む。
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawToken, err := bearerToken(c)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
				//HS256以外は受け付けない
				if t.Method != jwt.SigningMethodHS256 {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil || token == nil || !token.Valid {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			mapClaims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			claims, err := parseAuthClaims(mapClaims)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			c.Set(CtxUserIDKey, claims.UserID)
			c.Set(CtxUserRoleKey, claims.Role)
			c.Set(CtxTokenVersionKey, claims.TokenVersion)

			return next(c)
		}
	}
}

// Authorizationヘッダから"Bearer xxx"のxxxを抜き出す
func bearerToken(c echo.Context) (string, error) {
	authz := c.Request().Header.Get("Authorization")
	if authz == "" {
		return "", errors.New("missing authorization header")
	}

	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("not a bearer token")
	}

	raw := strings.TrimSpace(parts[1])
	if raw == "" {
		return "", errors.New("empty token")
	}
	return raw, nil
}

func parseAuthClaims(claims jwt.MapClaims) (authClaims, error) {
	userID, err := parseUserID(claims["sub"])
	if err != nil || userID <= 0 {
		return authClaims{}, errors.New("invalid sub")
	}

	role, err := parseRole(claims["role"])
	if err != nil {
		return authClaims{}, err
	}

	tv, err := parseInt(claims["tv"])
	if err != nil || tv < 0 {
		return authClaims{}, errors.New("invalid tv")
	}

	return authClaims{UserID: userID, Role: role, TokenVersion: tv}, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

// user_idをint64に変換する
func parseUserID(v interface{}) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, errors.New("invalid sub")
	}
}

// 知らないroleの入ったトークンは弾く
func parseRole(v interface{}) (model.Role, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.New("invalid role")
	}
	switch role := model.Role(s); role {
	case model.RoleStaff, model.RoleAdmin:
		return role, nil
	default:
		return "", errors.New("unknown role")
	}
}

func parseInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case float64:
		return int(t), nil
	case int:
		return t, nil
	case string:
		i64, err := strconv.ParseInt(t, 10, 32)
		if err != nil {
			return 0, err
		}
		return int(i64), nil
	default:
		return 0, errors.New("invalid int")
	}
}
