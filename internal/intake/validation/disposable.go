package validation

import "strings"

var disposableDomains = map[string]struct{}{}

func init() {
	for _, d := range []string{
		"tempmail.com", "throwaway.email", "guerrillamail.com", "mailinator.com",
		"10minutemail.com", "temp-mail.org", "fakeinbox.com", "trashmail.com",
		"yopmail.com", "tempail.com", "sharklasers.com", "guerrillamail.info",
		"grr.la", "spam4.me", "getairmail.com", "mohmal.com", "tempmailo.com",
		"mailnesia.com", "maildrop.cc", "dispostable.com", "mailcatch.com",
		"mintemail.com", "tempr.email", "discard.email", "spamgourmet.com",
		"mytrashmail.com", "mailnull.com", "jetable.org", "incognitomail.org",
		"emailondeck.com", "getnada.com", "burnermail.io", "tempinbox.com",
		"fakemailgenerator.com", "throwawaymail.com", "mailsac.com", "moakt.com",
		"tempsky.com", "mailpoof.com", "spambox.us", "trash-mail.com",
		"wegwerfmail.de", "byom.de", "spamfree24.org", "mail-temporaire.fr",
		"tempmailaddress.com", "emailfake.com", "crazymailing.com", "tempemailco.com",
		"anonymmail.net", "fakemail.net", "mailtemp.net", "inboxkitten.com",
		"gmailnator.com", "emailnator.com", "1secmail.com", "1secmail.org",
		"guerrillamailblock.com", "pokemail.net", "spam.la", "tempmails.net",
	} {
		disposableDomains[d] = struct{}{}
	}
}

// IsDisposableEmail reports whether the email's domain is a known throwaway provider.
func IsDisposableEmail(email string) bool {
	_, domain, ok := strings.Cut(strings.ToLower(email), "@")
	if !ok {
		return false
	}
	_, found := disposableDomains[domain]
	return found
}
