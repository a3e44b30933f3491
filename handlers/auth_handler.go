package handlers

import (
	"context"
	"net/http"
	"os"
	"regexp"
	"time"

	"tuc-canteen-backend/database"
	"tuc-canteen-backend/models"

	"tuc-canteen-backend/middleware"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

var pinPattern = regexp.MustCompile(`^\d{4,6}$`)

// LoginHandler authenticates an operator by their 4-6 digit PIN. PINs are
// stored bcrypt-hashed, so the lookup compares the submitted PIN against every
// admin record; the roster is a handful of committee members.
func LoginHandler(c *gin.Context) {
	var creds struct {
		Pin        string `json:"pin" binding:"required"`
		RememberMe bool   `json:"rememberMe"`
	}
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if !pinPattern.MatchString(creds.Pin) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": translatorFrom(c).T("invalid_pin")})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var expiration time.Duration
	if creds.RememberMe {
		expiration = 30 * 24 * time.Hour
	} else {
		expiration = 24 * time.Hour
	}

	cursor, err := database.AdminCollection.Find(ctx, bson.M{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not verify PIN"})
		return
	}
	defer cursor.Close(ctx)

	var admin models.Admin
	found := false
	for cursor.Next(ctx) {
		var candidate models.Admin
		if err := cursor.Decode(&candidate); err != nil {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(candidate.PinHash), []byte(creds.Pin)) == nil {
			admin = candidate
			found = true
			break
		}
	}
	if !found {
		c.JSON(http.StatusUnauthorized, gin.H{"error": translatorFrom(c).T("invalid_pin")})
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"adminId": admin.ID.Hex(),
		"role":    string(admin.Role),
		"exp":     time.Now().Add(expiration).Unix(),
	})

	tokenString, _ := token.SignedString(middleware.GetSecret())

	middleware.SetAuthCookie(c, tokenString, expiration)
	c.JSON(http.StatusOK, gin.H{
		"token": tokenString,
		"admin": gin.H{
			"id":       admin.ID.Hex(),
			"name":     admin.Name,
			"role":     admin.Role,
			"language": admin.Language,
		},
	})
}

func LogoutHandler(c *gin.Context) {
	c.SetCookie(
		"token",
		"",
		-1,
		"/",
		"",
		false,
		true,
	)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// AuthMeHandler returns the operator behind the current session token.
func AuthMeHandler(adminCollection *mongo.Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie("token")
		if err != nil || tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			return middleware.GetSecret(), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid claims"})
			return
		}

		adminIDStr, _ := claims["adminId"].(string)
		adminID, err := primitive.ObjectIDFromHex(adminIDStr)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid adminId"})
			return
		}

		var admin models.Admin
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err = adminCollection.FindOne(ctx, bson.M{"_id": adminID}).Decode(&admin)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Admin not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"admin": gin.H{
				"id":       admin.ID.Hex(),
				"name":     admin.Name,
				"email":    admin.Email,
				"role":     admin.Role,
				"language": admin.Language,
			},
		})
	}
}

// BootstrapAdminHandler creates an operator account. Guarded by a deploy-time
// shared secret rather than a session, so the first leader can be created on
// an empty database.
func BootstrapAdminHandler(c *gin.Context) {
	adminSecret := c.GetHeader("X-Admin-Secret")
	expectedSecret := os.Getenv("ADMIN_SECRET_KEY")

	if expectedSecret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server misconfiguration: ADMIN_SECRET_KEY not set"})
		return
	}

	if adminSecret != expectedSecret {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	var input struct {
		Name     string      `json:"name" binding:"required"`
		Email    string      `json:"email"`
		Pin      string      `json:"pin" binding:"required"`
		Role     models.Role `json:"role" binding:"required"`
		Language string      `json:"language"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !pinPattern.MatchString(input.Pin) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "PIN must be 4-6 digits"})
		return
	}
	if input.Role != models.RoleLeader && input.Role != models.RoleAssistant {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be leader or assistant"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var existing models.Admin
	err := database.AdminCollection.FindOne(ctx, bson.M{"name": input.Name}).Decode(&existing)
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "An admin with this name already exists"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Pin), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not process PIN"})
		return
	}

	if input.Language == "" {
		input.Language = "en"
	}

	admin := models.Admin{
		ID:       primitive.NewObjectID(),
		Name:     input.Name,
		Email:    input.Email,
		PinHash:  string(hash),
		Role:     input.Role,
		Language: input.Language,
	}

	if _, err := database.AdminCollection.InsertOne(ctx, admin); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create admin"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Admin created",
		"adminId": admin.ID.Hex(),
	})
}
