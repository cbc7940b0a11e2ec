package middleware

import (
	"strings"

	"relieflink/models"
	"relieflink/repositories"
	"relieflink/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthMiddleware handles JWT authentication for protected routes.
type AuthMiddleware struct {
	jwtService *utils.JWTService
	userRepo   *repositories.UserRepository
}

func NewAuthMiddleware(jwtService *utils.JWTService, userRepo *repositories.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		userRepo:   userRepo,
	}
}

// RequireAuth validates the access token and loads the current user into the
// request context.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := am.extractToken(c)
		if token == "" {
			utils.UnauthorizedResponse(c, "Authentication token required")
			c.Abort()
			return
		}

		claims, err := am.jwtService.ValidateToken(token)
		if err != nil {
			logrus.Debugf("Token validation failed: %v", err)
			utils.UnauthorizedResponse(c, "Invalid or expired token")
			c.Abort()
			return
		}

		if claims.TokenType != "access" {
			utils.UnauthorizedResponse(c, "Invalid token type")
			c.Abort()
			return
		}

		user, err := am.userRepo.GetByID(c.Request.Context(), claims.UserID)
		if err != nil || user == nil {
			utils.UnauthorizedResponse(c, "User not found")
			c.Abort()
			return
		}

		if !user.IsActive {
			utils.ForbiddenResponse(c, "Account has been deactivated")
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("userID", user.ID.Hex())
		c.Set("userEmail", user.Email)
		c.Set("userRole", user.Role)

		c.Next()
	}
}

// RequireRole restricts a route to users holding one of the given roles.
// Must run after RequireAuth.
func (am *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("userRole")
		if role == "" {
			utils.UnauthorizedResponse(c, "Authentication required")
			c.Abort()
			return
		}

		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		utils.ForbiddenResponse(c, "Insufficient permissions for this action")
		c.Abort()
	}
}

// OptionalAuth loads the user when a valid token is present but never rejects
// the request. Used on public endpoints that personalize when possible.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := am.extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := am.jwtService.ValidateToken(token)
		if err != nil || claims.TokenType != "access" {
			c.Next()
			return
		}

		user, err := am.userRepo.GetByID(c.Request.Context(), claims.UserID)
		if err != nil || user == nil || !user.IsActive {
			c.Next()
			return
		}

		c.Set("user", user)
		c.Set("userID", user.ID.Hex())
		c.Set("userEmail", user.Email)
		c.Set("userRole", user.Role)

		c.Next()
	}
}

// extractToken pulls the token from the Authorization header, query string,
// or cookie, in that order.
func (am *AuthMiddleware) extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	if token := c.Query("token"); token != "" {
		return token
	}

	if token, err := c.Cookie("auth_token"); err == nil && token != "" {
		return token
	}

	return ""
}

// GetCurrentUser returns the authenticated user from the request context.
func GetCurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get("user")
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}
