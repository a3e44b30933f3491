// Package i18n is the key-to-string lookup table for the two app languages,
// English and Twi. Carried as an explicit Translator value handed to whoever
// needs it, not as a package-level current language.
package i18n

type Language string

const (
	English Language = "en"
	Twi     Language = "tw"
)

// Supported lists the languages the table covers.
func Supported() []Language {
	return []Language{English, Twi}
}

type Translator struct {
	lang Language
}

// New returns a translator for lang, falling back to English for anything
// unsupported.
func New(lang Language) Translator {
	if _, ok := translations[lang]; !ok {
		lang = English
	}
	return Translator{lang: lang}
}

func (t Translator) Language() Language {
	return t.lang
}

// T looks up key in the translator's language, falling back to English and
// finally to the key itself so a missing entry never blanks a label.
func (t Translator) T(key string) string {
	if s, ok := translations[t.lang][key]; ok {
		return s
	}
	if s, ok := translations[English][key]; ok {
		return s
	}
	return key
}

var translations = map[Language]map[string]string{
	English: {
		"paid":              "Paid",
		"pending":           "Pending",
		"no_work":           "No work",
		"just_paid":         "Just paid",
		"invalid_pin":       "Invalid PIN. Please try again.",
		"missing_receipt":   "A receipt photo is required.",
		"already_paid":      "This seller has already paid for this week.",
		"payment_failed":    "Payment could not be saved. Please try again.",
		"present":           "Present",
		"absent":            "Absent",
		"total_collected":   "Total collected",
		"total_outstanding": "Total outstanding",
		"monday":            "Monday",
		"tuesday":           "Tuesday",
		"wednesday":         "Wednesday",
		"thursday":          "Thursday",
		"friday":            "Friday",
		"saturday":          "Saturday",
	},
	Twi: {
		"paid":              "Watua",
		"pending":           "Ɛda so",
		"no_work":           "Adwuma nni hɔ",
		"just_paid":         "Watua seesei ara",
		"invalid_pin":       "PIN no nnyɛ. Sɔ bio.",
		"missing_receipt":   "Wohia receipt mfonini.",
		"already_paid":      "Saa dwadini yi atua dedaw saa dapɛn yi.",
		"payment_failed":    "Yantumi ankora sika no so. Sɔ bio.",
		"present":           "Ɔwɔ hɔ",
		"absent":            "Onni hɔ",
		"total_collected":   "Sika a wɔde baeɛ nyinaa",
		"total_outstanding": "Sika a ɛda so nyinaa",
		"monday":            "Dwowda",
		"tuesday":           "Benada",
		"wednesday":         "Wukuda",
		"thursday":          "Yawda",
		"friday":            "Fida",
		"saturday":          "Memenda",
	},
}
