package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"tuc-canteen-backend/i18n"
)

// translatorFrom picks the response language from ?lang= or Accept-Language.
// Unsupported values fall back to English inside i18n.New.
func translatorFrom(c *gin.Context) i18n.Translator {
	lang := c.Query("lang")
	if lang == "" {
		header := c.GetHeader("Accept-Language")
		if len(header) >= 2 {
			lang = strings.ToLower(header[:2])
		}
	}
	return i18n.New(i18n.Language(lang))
}
