package linkify

// knownTLDs is the allow-list for bare-domain detection. Bare tokens like
// "word.xy" are only linkified when the final label is listed here, which
// keeps abbreviations ("z.B.", "u.a.") and file names out of the anchors.
var knownTLDs = map[string]bool{
	// generic
	"com": true, "net": true, "org": true, "edu": true, "gov": true,
	"mil": true, "int": true, "info": true, "biz": true, "name": true,
	"pro": true, "io": true, "co": true, "me": true, "tv": true,
	"app": true, "dev": true, "blog": true, "shop": true, "online": true,
	"site": true, "xyz": true, "cloud": true, "store": true, "news": true,
	// country codes
	"de": true, "at": true, "ch": true, "uk": true, "us": true,
	"fr": true, "it": true, "nl": true, "es": true, "pt": true,
	"be": true, "dk": true, "se": true, "no": true, "fi": true,
	"pl": true, "cz": true, "hu": true, "gr": true, "ie": true,
	"ru": true, "ua": true, "tr": true, "cn": true, "jp": true,
	"kr": true, "in": true, "au": true, "nz": true, "ca": true,
	"mx": true, "br": true, "ar": true, "za": true, "eu": true,
	"li": true, "lu": true,
}

// AddTLDs extends the allow-list, e.g. from user configuration.
func AddTLDs(tlds []string) {
	for _, t := range tlds {
		if t != "" {
			knownTLDs[t] = true
		}
	}
}
