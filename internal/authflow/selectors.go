// File: internal/authflow/selectors.go
// Description: The intent-to-locator table. The portal's markup is not ours
// and changes without notice, so every UI target is an ordered fallback list:
// semantic (accessible-name) locators first, structural selectors second.
package authflow

// Intent names a UI target of the login flow.
type Intent int

const (
	IntentOverlayDismiss Intent = iota
	IntentLoginField
	IntentPasswordField
	IntentNextButton
	IntentSubmitButton
	IntentCaptchaIndicator
	IntentTokenPayload
)

// String returns the intent name used in logs and errors.
func (i Intent) String() string {
	switch i {
	case IntentOverlayDismiss:
		return "overlay_dismiss"
	case IntentLoginField:
		return "login_field"
	case IntentPasswordField:
		return "password_field"
	case IntentNextButton:
		return "next_button"
	case IntentSubmitButton:
		return "submit_button"
	case IntentCaptchaIndicator:
		return "captcha_indicator"
	case IntentTokenPayload:
		return "token_payload"
	default:
		return "unknown"
	}
}

// locatorList holds the ordered fallbacks for one intent. labels are matched
// against accessible names (diacritic-insensitive, so "Haslo" also matches
// the portal's "Hasło"); selectors are plain CSS, tried in declared order.
// awaitSelectors, when set, is the narrower list a visibility wait polls.
type locatorList struct {
	labels         []string
	selectors      []string
	awaitSelectors []string
}

var locatorTable = map[Intent]locatorList{
	IntentOverlayDismiss: {
		labels: []string{"Akceptuj", "Akceptuje", "Zgadzam", "Rozumiem", "Accept", "OK"},
		selectors: []string{
			"#onetrust-accept-btn-handler",
		},
	},
	IntentLoginField: {
		labels: []string{"Login", "E-mail", "Email", "Nazwa uzytkownika", "Uzytkownik"},
		selectors: []string{
			"input#Alias",
			"input[name='Alias']",
			"input[name='login']",
			"input#login",
			"input[name='email']",
			"input[type='email']",
			"input[name='username']",
			"input[type='text']",
		},
		awaitSelectors: []string{"#Alias", "input[name='Alias']", "input#login"},
	},
	IntentPasswordField: {
		labels: []string{"Haslo", "Password"},
		selectors: []string{
			"input#Password",
			"input[name='Password']",
			"input[type='password']",
			"input[name='password']",
			"input#password",
		},
		awaitSelectors: []string{"#Password", "input[name='Password']", "input[type='password']"},
	},
	IntentNextButton: {
		labels: []string{"Dalej", "Next"},
		selectors: []string{
			"#btNext",
			"button#btNext",
		},
	},
	IntentSubmitButton: {
		labels: []string{"Zaloguj", "Login", "Sign in"},
		selectors: []string{
			"#btLogIn",
			"#btLogin",
			"#btLogOn",
			"button#btLogIn",
			"button#btLogin",
			"button[type='submit']",
			"input[type='submit']",
		},
	},
	IntentCaptchaIndicator: {
		selectors: []string{
			"#captcha",
			"#captcha-response",
			"[name*='captcha']",
			"[id*='captcha']",
			"iframe[src*='captcha']",
		},
	},
	IntentTokenPayload: {
		selectors: []string{"#ap"},
	},
}

// locators returns the fallback lists for an intent.
func locators(intent Intent) locatorList {
	return locatorTable[intent]
}

// waitSelectors returns the selector list a visibility wait should poll.
func waitSelectors(intent Intent) []string {
	l := locatorTable[intent]
	if len(l.awaitSelectors) > 0 {
		return l.awaitSelectors
	}
	return l.selectors
}
