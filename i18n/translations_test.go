package i18n_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tuc-canteen-backend/i18n"
)

func TestTranslator(t *testing.T) {
	en := i18n.New(i18n.English)
	tw := i18n.New(i18n.Twi)

	assert.Equal(t, "Paid", en.T("paid"))
	assert.Equal(t, "Watua", tw.T("paid"))
	assert.Equal(t, "Dwowda", tw.T("monday"))
}

func TestTranslator_Fallbacks(t *testing.T) {
	// Unknown language falls back to English.
	fr := i18n.New("fr")
	assert.Equal(t, i18n.English, fr.Language())
	assert.Equal(t, "Pending", fr.T("pending"))

	// Unknown key falls back to the key itself.
	assert.Equal(t, "no_such_key", fr.T("no_such_key"))
}
